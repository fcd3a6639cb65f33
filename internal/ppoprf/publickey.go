package ppoprf

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cloudflare/circl/group"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformedKey se devuelve cuando no se puede parsear una clave pública serializada.
var ErrMalformedKey = errors.New("ppoprf: malformed public key")

// Formato de wire (protobuf):
//
//	message ServerPublicKey { bytes base = 1; repeated EpochTag tags = 2; }
//	message EpochTag        { uint32 epoch = 1; bytes point = 2; }
const (
	fieldBase  protowire.Number = 1
	fieldTags  protowire.Number = 2
	fieldEpoch protowire.Number = 1
	fieldPoint protowire.Number = 2
)

// ServerPublicKey se compromete a k·G y a t_e·G para cada epoch soportado.
type ServerPublicKey struct {
	base group.Element
	tags map[uint8]group.Element
}

// Epochs lista los epochs cubiertos por la clave, en orden ascendente.
func (pk *ServerPublicKey) Epochs() []uint8 {
	out := make([]uint8, 0, len(pk.tags))
	for e := range pk.tags {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (pk *ServerPublicKey) tweaked(epoch uint8) (group.Element, bool) {
	t, ok := pk.tags[epoch]
	if !ok {
		return nil, false
	}
	return suite.NewElement().Add(pk.base, t), true
}

// Equal indica si ambas claves tienen los mismos compromisos.
func (pk *ServerPublicKey) Equal(o *ServerPublicKey) bool {
	if pk == nil || o == nil {
		return pk == o
	}
	if !pk.base.IsEqual(o.base) || len(pk.tags) != len(o.tags) {
		return false
	}
	for e, t := range pk.tags {
		ot, ok := o.tags[e]
		if !ok || !t.IsEqual(ot) {
			return false
		}
	}
	return true
}

// MarshalBinary codifica la clave en wire format protobuf, tags ordenados por epoch.
func (pk *ServerPublicKey) MarshalBinary() ([]byte, error) {
	base, err := pk.base.MarshalBinaryCompress()
	if err != nil {
		return nil, fmt.Errorf("ppoprf: encode base: %w", err)
	}
	b := protowire.AppendTag(nil, fieldBase, protowire.BytesType)
	b = protowire.AppendBytes(b, base)
	for _, e := range pk.Epochs() {
		pt, err := pk.tags[e].MarshalBinaryCompress()
		if err != nil {
			return nil, fmt.Errorf("ppoprf: encode tag %d: %w", e, err)
		}
		var m []byte
		m = protowire.AppendTag(m, fieldEpoch, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(e))
		m = protowire.AppendTag(m, fieldPoint, protowire.BytesType)
		m = protowire.AppendBytes(m, pt)

		b = protowire.AppendTag(b, fieldTags, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}
	return b, nil
}

// UnmarshalBinary decodifica la salida de MarshalBinary. Ignora campos desconocidos.
func (pk *ServerPublicKey) UnmarshalBinary(b []byte) error {
	out := ServerPublicKey{tags: map[uint8]group.Element{}}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldBase && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
			}
			p, err := PointFromBytes(v)
			if err != nil {
				return fmt.Errorf("%w: base: %v", ErrMalformedKey, err)
			}
			out.base = p.e
			b = b[n:]
		case num == fieldTags && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
			}
			epoch, p, err := parseEpochTag(v)
			if err != nil {
				return err
			}
			out.tags[epoch] = p.e
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if out.base == nil {
		return fmt.Errorf("%w: missing base", ErrMalformedKey)
	}
	*pk = out
	return nil
}

func parseEpochTag(b []byte) (uint8, *Point, error) {
	var (
		epoch    uint64
		hasEpoch bool
		point    *Point
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return 0, nil, fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldEpoch && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
			}
			epoch, hasEpoch = v, true
			b = b[n:]
		case num == fieldPoint && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
			}
			p, err := PointFromBytes(v)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: tag: %v", ErrMalformedKey, err)
			}
			point = p
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrMalformedKey, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !hasEpoch || epoch > 255 || point == nil {
		return 0, nil, fmt.Errorf("%w: incomplete epoch tag", ErrMalformedKey)
	}
	return uint8(epoch), point, nil
}
