package transfer

import (
	"errors"
	"fmt"

	"github.com/skiffworks/skiff/typemap"
)

// UnsupportedTypeError reports a type shape the builder cannot classify,
// or a reference to a model that was never registered. Fatal to DTO
// registration for the owning model.
type UnsupportedTypeError struct {
	FieldPath  string
	Descriptor typemap.TypeDescriptor
	Reason     string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type at %q: %s (%s)", e.FieldPath, e.Descriptor, e.Reason)
}

// MissingFieldError reports a required field absent from an inbound payload.
// Recovered at the request boundary into a client-facing response.
type MissingFieldError struct {
	Field string
	Model string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q for model %q", e.Field, e.Model)
}

// errNestedDepthExceeded signals that a nested model sits past the configured
// depth. It never escapes the builder; the offending field is skipped.
var errNestedDepthExceeded = errors.New("nested depth exceeded")
