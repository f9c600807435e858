// Package params merges layered parameter declarations into one resolved
// table per handler and checks incoming request values against it. Merging
// happens once at route registration; the resolved table is immutable and
// shared read-only across request-handling invocations.
package params

import (
	"github.com/skiffworks/skiff/typemap"
)

// Scope ranks the nesting level a declaration was made at. Higher ranks win.
type Scope int

const (
	ScopeApplication Scope = iota
	ScopeRouter
	ScopeController
	ScopeHandler
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeApplication:
		return "application"
	case ScopeRouter:
		return "router"
	case ScopeController:
		return "controller"
	case ScopeHandler:
		return "handler"
	default:
		return "unknown"
	}
}

// Location is the wire location a parameter is read from.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
	InCookie Location = "cookie"
)

// Constraints is the declarative constraint set attached to a parameter.
// Zero-value fields impose no restriction.
type Constraints struct {
	Min          *float64
	Max          *float64
	ExclusiveMin bool
	ExclusiveMax bool
	MultipleOf   *float64
	MinLength    *int
	MaxLength    *int
	Pattern      string
	Enum         []string
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.Min == nil && c.Max == nil && c.MultipleOf == nil &&
		c.MinLength == nil && c.MaxLength == nil &&
		c.Pattern == "" && len(c.Enum) == 0
}

// Declaration is one scoped parameter declaration. Declarations are collected
// per handler across all applicable scopes and merged by Merge.
type Declaration struct {
	// Name is the semantic parameter name the handler sees.
	Name string
	// Scope the declaration was made at.
	Scope Scope
	// Location defaults to query when empty.
	Location Location
	// WireName aliases the external name; defaults to Name.
	WireName string
	// Type is the declared annotation; defaults to string when nil.
	Type        typemap.Annotation
	Constraints Constraints
	Default     any
	HasDefault  bool
	// DefaultFactory produces a default per request when the value is
	// absent. Ignored when HasDefault is set.
	DefaultFactory func() any
	// Optional marks the parameter not required even without a default.
	Optional bool
}

// EffectiveWireName returns the external name requests use for this parameter.
func (d Declaration) EffectiveWireName() string {
	if d.WireName != "" {
		return d.WireName
	}
	return d.Name
}

// EffectiveLocation returns the wire location, defaulting to query.
func (d Declaration) EffectiveLocation() Location {
	if d.Location == "" {
		return InQuery
	}
	return d.Location
}

// Float64 is a convenience for building constraint pointers.
func Float64(v float64) *float64 { return &v }

// Int is a convenience for building constraint pointers.
func Int(v int) *int { return &v }
