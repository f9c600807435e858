// Package transfer builds and executes data-transfer schemas for model types.
// A model's fields are classified into transfer types that drive both wire
// (de)serialization and OpenAPI schema generation.
package transfer

import (
	"sync"

	"github.com/skiffworks/skiff/typemap"
)

// TransferType is the closed variant over classified field type shapes.
// Implementations: SimpleType, UnionType, CollectionType, TupleType, MappingType.
type TransferType interface {
	// Parsed returns the descriptor the transfer type was built from.
	Parsed() typemap.TypeDescriptor
	// HasNested reports whether any reachable leaf carries nested model fields.
	// Computed bottom-up at construction and cached.
	HasNested() bool

	isTransferType()
}

// NestedFieldInfo pairs a model type with its resolved transfer field set.
// The same pointer is shared between a self-referential model and the nodes
// that reference it; Fields is patched in place once construction completes.
type NestedFieldInfo struct {
	Model  typemap.BaseType
	Fields []TransferFieldDefinition
}

// SimpleType represents an indivisible, non-composite type.
type SimpleType struct {
	ParsedType typemap.TypeDescriptor
	// NestedInfo is non-nil when the leaf type is a registered model.
	NestedInfo *NestedFieldInfo
}

func (s SimpleType) Parsed() typemap.TypeDescriptor { return s.ParsedType }
func (s SimpleType) HasNested() bool                { return s.NestedInfo != nil }
func (SimpleType) isTransferType()                  {}

// UnionType represents a union over flattened, ordered member types.
type UnionType struct {
	ParsedType typemap.TypeDescriptor
	Inner      []TransferType
	Nested     bool
}

func (u UnionType) Parsed() typemap.TypeDescriptor { return u.ParsedType }
func (u UnionType) HasNested() bool                { return u.Nested }
func (UnionType) isTransferType()                  {}

// CollectionType represents a homogeneous single-argument container.
type CollectionType struct {
	ParsedType typemap.TypeDescriptor
	Inner      TransferType
	Nested     bool
}

func (c CollectionType) Parsed() typemap.TypeDescriptor { return c.ParsedType }
func (c CollectionType) HasNested() bool                { return c.Nested }
func (CollectionType) isTransferType()                  {}

// TupleType represents a fixed-arity heterogeneous tuple.
type TupleType struct {
	ParsedType typemap.TypeDescriptor
	Inner      []TransferType
	Nested     bool
}

func (t TupleType) Parsed() typemap.TypeDescriptor { return t.ParsedType }
func (t TupleType) HasNested() bool                { return t.Nested }
func (TupleType) isTransferType()                  {}

// MappingType represents a two-argument mapping container.
type MappingType struct {
	ParsedType typemap.TypeDescriptor
	Key        TransferType
	Value      TransferType
	Nested     bool
}

func (m MappingType) Parsed() typemap.TypeDescriptor { return m.ParsedType }
func (m MappingType) HasNested() bool                { return m.Nested }
func (MappingType) isTransferType()                  {}

// Mark flags a field with transfer semantics beyond its type.
type Mark string

const (
	// MarkNone is the default, fields transfer in both directions.
	MarkNone Mark = ""
	// MarkReadOnly fields are emitted outbound but never accepted inbound.
	MarkReadOnly Mark = "read-only"
	// MarkPrivate fields never cross the wire in either direction.
	MarkPrivate Mark = "private"
)

// FieldDefinition describes one field of a model as reported by the
// model-introspection adapter. The sequence for a model must be finite,
// field-name-unique and stable across repeated calls.
type FieldDefinition struct {
	Name           string
	Type           typemap.Annotation
	Default        any
	HasDefault     bool
	DefaultFactory func() any
	ModelName      string
	Mark           Mark
}

// HasDefaultValue reports whether the field supplies a default or factory.
func (f FieldDefinition) HasDefaultValue() bool {
	return f.HasDefault || f.DefaultFactory != nil
}

// TransferFieldDefinition extends FieldDefinition with resolved transfer
// metadata. SerializationName is the wire-facing name and is unique within
// one field set.
type TransferFieldDefinition struct {
	FieldDefinition

	TransferType      TransferType
	SerializationName string
	// IsPartial fields are omitted when absent on deserialization.
	IsPartial bool
	// IsExcluded fields are dropped from outbound transfer and never
	// required inbound.
	IsExcluded bool
}

// ModelRegistry supplies field definitions per model type. Implementations
// must return stable sequences for repeated calls with the same model.
type ModelRegistry interface {
	Fields(model string) ([]FieldDefinition, bool)
}

// Registry is a map-backed ModelRegistry safe for concurrent reads after
// startup registration.
type Registry struct {
	mu     sync.RWMutex
	models map[string][]FieldDefinition
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string][]FieldDefinition)}
}

// Register records the field definitions for a model, replacing any previous
// registration. Field order is preserved.
func (r *Registry) Register(model string, fields ...FieldDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]FieldDefinition, len(fields))
	copy(stored, fields)
	for i := range stored {
		stored[i].ModelName = model
	}
	r.models[model] = stored
}

// Fields returns the registered field definitions for a model.
func (r *Registry) Fields(model string) ([]FieldDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fields, ok := r.models[model]
	return fields, ok
}

// Models returns the names of all registered models.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	return names
}
