package frame

import (
	"github.com/pkg/errors"
)

// Error kinds raised by the adapter. Callers classify with errors.Is or Kind.
var (
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrSchemaMismatch   = errors.New("schema mismatch")
	ErrIncompatibleCast = errors.New("incompatible cast")
	ErrShapeMismatch    = errors.New("shape mismatch")
)

// Kind names the error kind carried by err, or "" when err is not one of ours.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTypeMismatch):
		return "TypeMismatch"
	case errors.Is(err, ErrSchemaMismatch):
		return "SchemaMismatch"
	case errors.Is(err, ErrIncompatibleCast):
		return "IncompatibleCast"
	case errors.Is(err, ErrShapeMismatch):
		return "ShapeMismatch"
	default:
		return ""
	}
}

func unknownColumn(name string) error {
	return errors.Wrapf(ErrSchemaMismatch, "column %q not found", name)
}
