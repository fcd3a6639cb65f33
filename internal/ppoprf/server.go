package ppoprf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
)

var tagDST = []byte("STAR-PPOPRF-Tag-v1")

var (
	ErrNoEpochs      = errors.New("ppoprf: empty epoch set")
	ErrUnknownEpoch  = errors.New("ppoprf: epoch not supported by this key")
	ErrDegenerateKey = errors.New("ppoprf: degenerate tweaked key")
)

// Evaluation es la salida del servidor para un punto.
type Evaluation struct {
	Output *Point
	Proof  *Proof
}

// Server guarda el material secreto de una generación de epochs.
//
// Eval puede correr en paralelo con otros Eval. Puncture y Destroy deben quedar
// serializados respecto de todo lo demás.
type Server struct {
	key  group.Scalar
	tree *pprf
	pub  *ServerPublicKey
	rnd  io.Reader
}

// NewServer crea una clave nueva capaz de evaluar cada epoch de epochs.
func NewServer(epochs []uint8) (*Server, error) {
	return newServer(rand.Reader, epochs)
}

func newServer(rnd io.Reader, epochs []uint8) (*Server, error) {
	if len(epochs) == 0 {
		return nil, ErrNoEpochs
	}
	tree, err := newPPRF(rnd)
	if err != nil {
		return nil, err
	}
	key := suite.RandomNonZeroScalar(rnd)
	pub := &ServerPublicKey{
		base: suite.NewElement().MulGen(key),
		tags: make(map[uint8]group.Element, len(epochs)),
	}
	for _, e := range epochs {
		t, err := tagScalar(tree, e)
		if err != nil {
			return nil, err
		}
		pub.tags[e] = suite.NewElement().MulGen(t)
	}
	return &Server{key: key, tree: tree, pub: pub, rnd: rnd}, nil
}

func tagScalar(tree *pprf, epoch uint8) (group.Scalar, error) {
	leaf, err := tree.eval(epoch)
	if err != nil {
		return nil, err
	}
	defer wipe(leaf)
	return suite.HashToScalar(leaf, tagDST), nil
}

// tweakedKey devuelve k + t_epoch.
func (s *Server) tweakedKey(epoch uint8) (group.Scalar, error) {
	if _, ok := s.pub.tags[epoch]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEpoch, epoch)
	}
	if s.tree == nil {
		return nil, fmt.Errorf("%w: %d", ErrPunctured, epoch)
	}
	t, err := tagScalar(s.tree, epoch)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", err, epoch)
	}
	k := suite.NewScalar().Add(s.key, t)
	if k.IsZero() {
		return nil, ErrDegenerateKey
	}
	return k, nil
}

// Eval calcula (k + t_epoch)^-1 · p. Con prove adjunta una prueba DLEQ que ata
// la salida a la clave pública del epoch.
func (s *Server) Eval(p *Point, epoch uint8, prove bool) (*Evaluation, error) {
	if p == nil {
		return nil, ErrInvalidPoint
	}
	k, err := s.tweakedKey(epoch)
	if err != nil {
		return nil, err
	}
	out := suite.NewElement().Mul(p.e, suite.NewScalar().Inv(k))
	ev := &Evaluation{Output: &Point{e: out}}
	if prove {
		kPub, _ := s.pub.tweaked(epoch)
		ev.Proof = newProof(s.rnd, k, kPub, p.e, out)
	}
	return ev, nil
}

// Puncture elimina de forma irreversible la capacidad de evaluar en epoch.
func (s *Server) Puncture(epoch uint8) error {
	if _, ok := s.pub.tags[epoch]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEpoch, epoch)
	}
	if s.tree == nil {
		return fmt.Errorf("%w: %d", ErrPunctured, epoch)
	}
	if err := s.tree.puncture(epoch); err != nil {
		return fmt.Errorf("%w: %d", err, epoch)
	}
	return nil
}

// PublicKey devuelve los compromisos públicos de esta generación.
func (s *Server) PublicKey() *ServerPublicKey {
	return s.pub
}

// Destroy borra las semillas del PPRF. Después el servidor no puede evaluar.
func (s *Server) Destroy() {
	if s.tree != nil {
		s.tree.destroy()
		s.tree = nil
	}
}
