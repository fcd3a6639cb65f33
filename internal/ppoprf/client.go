package ppoprf

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"

	"github.com/cloudflare/circl/group"
)

var (
	hashToGroupDST = []byte("STAR-PPOPRF-HashToGroup-v1")
	finalizeLabel  = []byte("STAR-PPOPRF-Finalize-v1")
)

// HashToPoint lleva un input arbitrario al grupo.
func HashToPoint(input []byte) *Point {
	return &Point{e: suite.HashToElement(input, hashToGroupDST)}
}

// Blinded es el estado del cliente para un input entre request y response.
type Blinded struct {
	input []byte
	r     group.Scalar
	// Point es lo que viaja al servidor.
	Point *Point
}

// Blind oculta input detrás de un escalar aleatorio.
func Blind(input []byte) *Blinded {
	r := suite.RandomNonZeroScalar(rand.Reader)
	h := suite.HashToElement(input, hashToGroupDST)
	return &Blinded{
		input: append([]byte(nil), input...),
		r:     r,
		Point: &Point{e: suite.NewElement().Mul(h, r)},
	}
}

// Unblind quita el factor de blinding de la evaluación del servidor y deja la
// evaluación de HashToPoint(input).
func (b *Blinded) Unblind(eval *Point) *Point {
	return &Point{e: suite.NewElement().Mul(eval.e, suite.NewScalar().Inv(b.r))}
}

// Finalize deriva los 64 bytes de randomness del input a partir de la evaluación.
func (b *Blinded) Finalize(eval *Point) []byte {
	u := b.Unblind(eval).Bytes()
	h := sha512.New()
	var l [8]byte
	binary.BigEndian.PutUint64(l[:], uint64(len(b.input)))
	h.Write(l[:])
	h.Write(b.input)
	h.Write(u)
	h.Write(finalizeLabel)
	return h.Sum(nil)
}
