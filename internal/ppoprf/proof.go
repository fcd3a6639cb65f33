package ppoprf

import (
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
)

var proofDST = []byte("STAR-PPOPRF-DLEQ-v1")

// ErrMalformedProof lo devuelve Proof.UnmarshalBinary.
var ErrMalformedProof = errors.New("ppoprf: malformed proof")

// Proof es una prueba Chaum-Pedersen de que log_G(K) == log_out(in), con
// K = (k + t_e)·G y out = (k + t_e)^-1 · in.
type Proof struct {
	c, z group.Scalar
}

func newProof(rnd io.Reader, k group.Scalar, kPub, in, out group.Element) *Proof {
	r := suite.RandomNonZeroScalar(rnd)
	a1 := suite.NewElement().MulGen(r)
	a2 := suite.NewElement().Mul(out, r)
	c := challenge(kPub, in, out, a1, a2)
	z := suite.NewScalar().Sub(r, suite.NewScalar().Mul(c, k))
	return &Proof{c: c, z: z}
}

func challenge(elems ...group.Element) group.Scalar {
	var msg []byte
	for _, e := range elems {
		b, err := e.MarshalBinaryCompress()
		if err != nil {
			panic(fmt.Sprintf("ppoprf: encode transcript: %v", err))
		}
		msg = append(msg, b...)
	}
	return suite.HashToScalar(msg, proofDST)
}

// VerifyEvaluation verifica que out sea la evaluación de in en epoch bajo pk.
func (pk *ServerPublicKey) VerifyEvaluation(in, out *Point, epoch uint8, proof *Proof) bool {
	if in == nil || out == nil || proof == nil {
		return false
	}
	kPub, ok := pk.tweaked(epoch)
	if !ok {
		return false
	}
	a1 := suite.NewElement().Add(
		suite.NewElement().MulGen(proof.z),
		suite.NewElement().Mul(kPub, proof.c),
	)
	a2 := suite.NewElement().Add(
		suite.NewElement().Mul(out.e, proof.z),
		suite.NewElement().Mul(in.e, proof.c),
	)
	return challenge(kPub, in.e, out.e, a1, a2).IsEqual(proof.c)
}

// MarshalBinary codifica la prueba como c || z.
func (p *Proof) MarshalBinary() ([]byte, error) {
	c, err := p.c.MarshalBinary()
	if err != nil {
		return nil, err
	}
	z, err := p.z.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(c, z...), nil
}

// UnmarshalBinary decodifica la salida de MarshalBinary.
func (p *Proof) UnmarshalBinary(b []byte) error {
	n := int(suite.Params().ScalarLength)
	if len(b) != 2*n {
		return fmt.Errorf("%w: got %d bytes", ErrMalformedProof, len(b))
	}
	c, z := suite.NewScalar(), suite.NewScalar()
	if err := c.UnmarshalBinary(b[:n]); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if err := z.UnmarshalBinary(b[n:]); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	p.c, p.z = c, z
	return nil
}
