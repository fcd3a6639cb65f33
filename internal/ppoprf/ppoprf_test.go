package ppoprf

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func epochRange(first, last int) []uint8 {
	out := make([]uint8, 0, last-first+1)
	for e := first; e <= last; e++ {
		out = append(out, uint8(e))
	}
	return out
}

func TestServer_EvalDeterministicPerEpoch(t *testing.T) {
	srv, err := NewServer(epochRange(0, 3))
	require.NoError(t, err)

	p := RandomPoint(rand.Reader)
	a, err := srv.Eval(p, 1, false)
	require.NoError(t, err)
	b, err := srv.Eval(p, 1, false)
	require.NoError(t, err)
	assert.True(t, a.Output.Equal(b.Output))
	assert.Nil(t, a.Proof)

	c, err := srv.Eval(p, 2, false)
	require.NoError(t, err)
	assert.False(t, a.Output.Equal(c.Output), "epochs must yield different outputs")
}

func TestServer_PunctureIsIrreversible(t *testing.T) {
	srv, err := NewServer(epochRange(0, 255))
	require.NoError(t, err)
	p := RandomPoint(rand.Reader)

	before, err := srv.Eval(p, 201, false)
	require.NoError(t, err)

	require.NoError(t, srv.Puncture(200))

	_, err = srv.Eval(p, 200, false)
	require.ErrorIs(t, err, ErrPunctured)
	require.ErrorIs(t, srv.Puncture(200), ErrPunctured)

	// el co-path mantiene vivos e intactos los demás epochs
	after, err := srv.Eval(p, 201, false)
	require.NoError(t, err)
	assert.True(t, before.Output.Equal(after.Output))
	for _, e := range []uint8{0, 1, 127, 128, 199, 255} {
		_, err := srv.Eval(p, e, false)
		assert.NoError(t, err, "epoch %d", e)
	}
}

func TestServer_PunctureEveryEpoch(t *testing.T) {
	srv, err := NewServer(epochRange(0, 255))
	require.NoError(t, err)
	for e := 0; e <= 255; e++ {
		require.NoError(t, srv.Puncture(uint8(e)))
	}
	assert.Empty(t, srv.tree.nodes)
	_, err = srv.Eval(RandomPoint(rand.Reader), 17, false)
	assert.ErrorIs(t, err, ErrPunctured)
}

func TestServer_UnknownEpoch(t *testing.T) {
	srv, err := NewServer(epochRange(5, 9))
	require.NoError(t, err)
	_, err = srv.Eval(RandomPoint(rand.Reader), 4, false)
	assert.ErrorIs(t, err, ErrUnknownEpoch)
	assert.ErrorIs(t, srv.Puncture(10), ErrUnknownEpoch)

	_, err = NewServer(nil)
	assert.ErrorIs(t, err, ErrNoEpochs)
}

func TestServer_Destroy(t *testing.T) {
	srv, err := NewServer(epochRange(0, 2))
	require.NoError(t, err)
	srv.Destroy()
	_, err = srv.Eval(RandomPoint(rand.Reader), 0, false)
	assert.ErrorIs(t, err, ErrPunctured)
}

func TestServer_ProofVerifies(t *testing.T) {
	srv, err := NewServer(epochRange(0, 7))
	require.NoError(t, err)
	pk := srv.PublicKey()
	p := RandomPoint(rand.Reader)

	ev, err := srv.Eval(p, 3, true)
	require.NoError(t, err)
	require.NotNil(t, ev.Proof)
	assert.True(t, pk.VerifyEvaluation(p, ev.Output, 3, ev.Proof))
	assert.False(t, pk.VerifyEvaluation(p, ev.Output, 4, ev.Proof))
	assert.False(t, pk.VerifyEvaluation(RandomPoint(rand.Reader), ev.Output, 3, ev.Proof))

	raw, err := ev.Proof.MarshalBinary()
	require.NoError(t, err)
	var decoded Proof
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.True(t, pk.VerifyEvaluation(p, ev.Output, 3, &decoded))
	assert.ErrorIs(t, decoded.UnmarshalBinary(raw[:10]), ErrMalformedProof)
}

func TestPublicKey_WireRoundTrip(t *testing.T) {
	srv, err := NewServer(epochRange(0, 10))
	require.NoError(t, err)
	raw, err := srv.PublicKey().MarshalBinary()
	require.NoError(t, err)

	var pk ServerPublicKey
	require.NoError(t, pk.UnmarshalBinary(raw))
	assert.True(t, pk.Equal(srv.PublicKey()))
	assert.Equal(t, epochRange(0, 10), pk.Epochs())

	other, err := NewServer(epochRange(0, 10))
	require.NoError(t, err)
	assert.False(t, other.PublicKey().Equal(srv.PublicKey()))

	assert.ErrorIs(t, pk.UnmarshalBinary([]byte{0xff}), ErrMalformedKey)
	assert.ErrorIs(t, pk.UnmarshalBinary(nil), ErrMalformedKey)
}

func TestPointFromBytes(t *testing.T) {
	p := RandomPoint(rand.Reader)
	raw := p.Bytes()
	require.Len(t, raw, CompressedPointLen)

	q, err := PointFromBytes(raw)
	require.NoError(t, err)
	assert.True(t, p.Equal(q))

	_, err = PointFromBytes(raw[:31])
	assert.ErrorIs(t, err, ErrBadPointLength)
	_, err = PointFromBytes(make([]byte, CompressedPointLen))
	assert.ErrorIs(t, err, ErrInvalidPoint)

	bad := make([]byte, CompressedPointLen)
	for i := range bad {
		bad[i] = 0xff
	}
	_, err = PointFromBytes(bad)
	assert.ErrorIs(t, err, ErrInvalidPoint)
}

func TestBlindEvalUnblind(t *testing.T) {
	srv, err := NewServer(epochRange(0, 3))
	require.NoError(t, err)
	input := []byte("telemetry-bucket-42")

	direct, err := srv.Eval(HashToPoint(input), 2, false)
	require.NoError(t, err)

	b1 := Blind(input)
	b2 := Blind(input)
	assert.False(t, b1.Point.Equal(b2.Point), "blinded points must not be linkable")

	ev1, err := srv.Eval(b1.Point, 2, false)
	require.NoError(t, err)
	ev2, err := srv.Eval(b2.Point, 2, false)
	require.NoError(t, err)

	assert.True(t, b1.Unblind(ev1.Output).Equal(direct.Output))
	assert.Equal(t, b1.Finalize(ev1.Output), b2.Finalize(ev2.Output))
	assert.Len(t, b1.Finalize(ev1.Output), 64)
}
