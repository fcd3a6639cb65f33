package oprf

import (
	"fmt"

	"github.com/dropDatabas3/starrand/internal/ppoprf"
)

// Primitive es lo mínimo que el servicio necesita del OPRF perforable.
// Eval no debe mutar nada de lo que depende Puncture.
type Primitive interface {
	Eval(p *ppoprf.Point, epoch uint8, prove bool) (*ppoprf.Evaluation, error)
	Puncture(epoch uint8) error
	PublicKey() *ppoprf.ServerPublicKey
}

// Factory construye un primitive nuevo sobre los epochs dados.
type Factory func(epochs []uint8) (Primitive, error)

// DefaultFactory usa ppoprf.Server.
func DefaultFactory(epochs []uint8) (Primitive, error) {
	return ppoprf.NewServer(epochs)
}

// Range es el intervalo cerrado de epochs evaluables. También define el tamaño
// de una generación.
type Range struct {
	First uint8
	Last  uint8
}

func (r Range) Validate() error {
	if r.First > r.Last {
		return fmt.Errorf("invalid epoch range: first %d > last %d", r.First, r.Last)
	}
	return nil
}

// Contains trabaja sobre int para que Last+1 no dé la vuelta.
func (r Range) Contains(e int) bool {
	return e >= int(r.First) && e <= int(r.Last)
}

// Epochs expande el rango.
func (r Range) Epochs() []uint8 {
	out := make([]uint8, 0, r.Len())
	for e := int(r.First); e <= int(r.Last); e++ {
		out = append(out, uint8(e))
	}
	return out
}

// Len es la cantidad de epochs de una generación.
func (r Range) Len() int {
	return int(r.Last) - int(r.First) + 1
}
