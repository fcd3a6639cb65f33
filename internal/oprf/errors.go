package oprf

import (
	"errors"
	"fmt"
)

var (
	ErrLockPoisoned  = errors.New("couldn't lock state: guard poisoned")
	ErrBadPoint      = errors.New("invalid point")
	ErrTooManyPoints = errors.New("too many points for a single request")
	ErrBase64        = errors.New("invalid base64 encoding")
	ErrOPRF          = errors.New("ppoprf error")
)

// BadEpochError rechaza un selector de epoch que no es el activo.
type BadEpochError struct {
	Epoch uint8
}

func (e *BadEpochError) Error() string {
	return fmt.Sprintf("invalid epoch %d", e.Epoch)
}

// FatalError lo devuelve el Rotator cuando el estado de epochs puede haber
// quedado inconsistente.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal indica si err contiene un *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
