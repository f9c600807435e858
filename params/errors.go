package params

import (
	"fmt"
	"strings"
)

// Conflict records one wire name claimed by multiple semantic parameters.
type Conflict struct {
	WireName string
	Names    []string
}

// ConflictError reports wire-name collisions discovered during merge.
// Conflicts are configuration errors and abort route registration; they are
// never resolved silently.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("wire name %q claimed by parameters %s", c.WireName, strings.Join(c.Names, ", "))
	}
	return "parameter conflict: " + strings.Join(parts, "; ")
}

// MissingParameterError reports a required parameter absent from a request.
type MissingParameterError struct {
	WireName string
	Location Location
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required %s parameter %q", e.Location, e.WireName)
}

// ValidationError reports the first constraint violated by a request value.
type ValidationError struct {
	Name       string
	WireName   string
	Constraint string
	Value      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q failed constraint %q with value %q", e.WireName, e.Constraint, e.Value)
}
