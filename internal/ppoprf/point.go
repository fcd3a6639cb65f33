package ppoprf

import (
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
)

// CompressedPointLen es el largo de un encoding Ristretto255 comprimido.
const CompressedPointLen = 32

var suite = group.Ristretto255

var (
	ErrBadPointLength = errors.New("ppoprf: wrong compressed point length")
	ErrInvalidPoint   = errors.New("ppoprf: invalid point encoding")
)

// Point es un elemento del grupo Ristretto255.
type Point struct {
	e group.Element
}

// PointFromBytes decodifica un punto comprimido. La identidad se rechaza.
func PointFromBytes(b []byte) (*Point, error) {
	if len(b) != CompressedPointLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadPointLength, len(b), CompressedPointLen)
	}
	e := suite.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	if e.IsIdentity() {
		return nil, fmt.Errorf("%w: identity element", ErrInvalidPoint)
	}
	return &Point{e: e}, nil
}

// RandomPoint elige un punto uniforme distinto de la identidad.
func RandomPoint(rnd io.Reader) *Point {
	for {
		e := suite.RandomElement(rnd)
		if !e.IsIdentity() {
			return &Point{e: e}
		}
	}
}

// Bytes devuelve el encoding comprimido.
func (p *Point) Bytes() []byte {
	b, err := p.e.MarshalBinaryCompress()
	if err != nil {
		// el encoding ristretto255 no falla para un elemento válido
		panic(fmt.Sprintf("ppoprf: encode point: %v", err))
	}
	return b
}

// Equal indica si ambos puntos codifican el mismo elemento.
func (p *Point) Equal(o *Point) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.e.IsEqual(o.e)
}
