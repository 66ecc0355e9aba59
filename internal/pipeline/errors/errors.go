package errors

import (
	"fmt"
)

var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrConflict          = fmt.Errorf("conflict")
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrInvalidTransition = fmt.Errorf("invalid status transition")
	ErrPrecondition      = fmt.Errorf("precondition failed")
	ErrUnauthenticated   = fmt.Errorf("unauthenticated")
	ErrForbidden         = fmt.Errorf("forbidden")
)
