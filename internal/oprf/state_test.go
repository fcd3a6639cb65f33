package oprf

import (
	"crypto/rand"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/starrand/internal/ppoprf"
)

// fakePrimitive permite forzar fallos de puncture sin material de clave real.
type fakePrimitive struct {
	punctureErr error
	punctured   []uint8
	destroyed   bool
}

func (f *fakePrimitive) Eval(p *ppoprf.Point, epoch uint8, prove bool) (*ppoprf.Evaluation, error) {
	return &ppoprf.Evaluation{Output: p}, nil
}

func (f *fakePrimitive) Puncture(epoch uint8) error {
	if f.punctureErr != nil {
		return f.punctureErr
	}
	f.punctured = append(f.punctured, epoch)
	return nil
}

func (f *fakePrimitive) PublicKey() *ppoprf.ServerPublicKey { return nil }

func (f *fakePrimitive) Destroy() { f.destroyed = true }

func TestNewState_StartsAtFirstEpoch(t *testing.T) {
	st, err := NewState(Range{First: 3, Last: 9}, nil)
	require.NoError(t, err)

	err = st.Read(func(v Snapshot) error {
		assert.Equal(t, uint8(3), v.Epoch())
		assert.Nil(t, v.NextRotation())
		assert.Equal(t, uint64(0), v.Generation())
		assert.Equal(t, Range{First: 3, Last: 9}.Epochs(), v.PublicKey().Epochs())
		return nil
	})
	require.NoError(t, err)
}

func TestNewState_Errors(t *testing.T) {
	_, err := NewState(Range{First: 5, Last: 4}, nil)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = NewState(Range{First: 0, Last: 1}, func([]uint8) (Primitive, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestRange(t *testing.T) {
	r := Range{First: 250, Last: 255}
	assert.Equal(t, 6, r.Len())
	assert.True(t, r.Contains(255))
	assert.False(t, r.Contains(256), "255+1 must not wrap into the range")
	assert.False(t, r.Contains(249))
	assert.Equal(t, []uint8{250, 251, 252, 253, 254, 255}, r.Epochs())
}

func TestState_WriterPanicPoisonsGuard(t *testing.T) {
	st, err := NewState(Range{First: 0, Last: 2}, nil)
	require.NoError(t, err)

	err = st.Write(func(rec *Record) error {
		rec.Epoch = 1
		panic("half-applied transition")
	})
	require.ErrorIs(t, err, ErrLockPoisoned)
	assert.True(t, st.Poisoned())

	called := false
	err = st.Read(func(Snapshot) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrLockPoisoned)
	assert.False(t, called)

	assert.ErrorIs(t, st.Write(func(*Record) error { return nil }), ErrLockPoisoned)
}

func TestState_WriteErrorDoesNotPoison(t *testing.T) {
	st, err := NewState(Range{First: 0, Last: 2}, nil)
	require.NoError(t, err)

	sentinel := errors.New("nope")
	assert.ErrorIs(t, st.Write(func(*Record) error { return sentinel }), sentinel)
	assert.False(t, st.Poisoned())
	assert.NoError(t, st.Read(func(Snapshot) error { return nil }))
}

func TestState_FatalWriteErrorPoisons(t *testing.T) {
	st, err := NewState(Range{First: 0, Last: 2}, nil)
	require.NoError(t, err)

	err = st.Write(func(rec *Record) error {
		rec.Epoch = 1
		return &FatalError{Op: "puncture", Err: errors.New("half written")}
	})
	assert.True(t, IsFatal(err))
	assert.True(t, st.Poisoned())
	assert.ErrorIs(t, st.Read(func(Snapshot) error { return nil }), ErrLockPoisoned)
}

func TestSnapshot_EvalUsesSnapshotEpoch(t *testing.T) {
	st, err := NewState(Range{First: 0, Last: 4}, nil)
	require.NoError(t, err)
	rot := NewRotator(st, 0, nil)
	require.NoError(t, rot.RotateOnce())

	p := ppoprf.RandomPoint(rand.Reader)
	err = st.Read(func(v Snapshot) error {
		got, err := v.Eval(p, false)
		require.NoError(t, err)
		want, err := st.rec.Primitive.Eval(p, 1, false)
		require.NoError(t, err)
		assert.True(t, want.Output.Equal(got.Output))
		return nil
	})
	require.NoError(t, err)
}

func TestState_ConcurrentReadersDuringRotation(t *testing.T) {
	st, err := NewState(Range{First: 0, Last: 3}, nil)
	require.NoError(t, err)
	rot := NewRotator(st, 0, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := ppoprf.RandomPoint(rand.Reader)
			for j := 0; j < 50; j++ {
				err := st.Read(func(v Snapshot) error {
					_, err := v.Eval(p, false)
					return err
				})
				if err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, rot.RotateOnce())
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("reader observed a punctured current epoch: %v", err)
	}
}
