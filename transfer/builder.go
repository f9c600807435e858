package transfer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skiffworks/skiff/typemap"
)

// DefaultMaxNestedDepth bounds nested model inlining. Fields past the limit
// are skipped rather than rejected.
const DefaultMaxNestedDepth = 8

// Direction distinguishes inbound (wire to model) from outbound transfer.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

// Config controls how a transfer schema is built from a model.
type Config struct {
	// MaxNestedDepth overrides DefaultMaxNestedDepth when positive.
	MaxNestedDepth int
	// MaxWrapperDepth bounds wrapper annotation nesting during
	// normalization when positive.
	MaxWrapperDepth int
	// Partial marks every field omit-if-absent on deserialization.
	Partial bool
	// Exclude lists field paths to drop, dotted for nested models ("a.b").
	Exclude []string
	// RenameFields maps internal field names to explicit wire names.
	RenameFields map[string]string
	// RenameStrategy derives wire names for fields not in RenameFields.
	RenameStrategy RenameStrategy
	// Direction the schema is built for; read-only fields are excluded
	// from inbound transfer.
	Direction Direction
}

func (c Config) maxDepth() int {
	if c.MaxNestedDepth > 0 {
		return c.MaxNestedDepth
	}
	return DefaultMaxNestedDepth
}

// Builder produces transfer field sets for registered models. A Builder is
// cheap to construct and single-use per goroutine; the underlying registry
// may be shared.
type Builder struct {
	registry ModelRegistry
	cfg      Config
	norm     typemap.Normalizer

	// building tracks models currently under construction, keyed by model
	// name. Re-entry returns the in-progress info pointer; its Fields are
	// stitched once the first visit completes.
	building map[string]*NestedFieldInfo
}

// NewBuilder creates a builder over the given model registry.
func NewBuilder(registry ModelRegistry, cfg Config) *Builder {
	return &Builder{
		registry: registry,
		cfg:      cfg,
		norm:     typemap.Normalizer{MaxWrapperDepth: cfg.MaxWrapperDepth},
	}
}

// BuildModel resolves the transfer field set for a registered model.
// All classification errors are reported eagerly; a failed build leaves
// no partial state behind.
func (b *Builder) BuildModel(model string) ([]TransferFieldDefinition, error) {
	b.building = make(map[string]*NestedFieldInfo)
	defer func() { b.building = nil }()

	exclude := make(map[string]struct{}, len(b.cfg.Exclude))
	for _, path := range b.cfg.Exclude {
		exclude[path] = struct{}{}
	}

	// The root model participates in cycle detection so that a direct
	// self-reference resolves to the root's own field set.
	info := &NestedFieldInfo{Model: typemap.BaseType{Kind: typemap.KindModel, Name: model}}
	b.building[model] = info
	fields, err := b.parseModel(model, exclude, 0)
	if err != nil {
		return nil, err
	}
	info.Fields = fields
	return fields, nil
}

// BuildType classifies a single normalized descriptor outside of any model
// context, e.g. for handler return annotations.
func (b *Builder) BuildType(descriptor typemap.TypeDescriptor) (TransferType, error) {
	b.building = make(map[string]*NestedFieldInfo)
	defer func() { b.building = nil }()
	return b.buildType(descriptor, nil, "", 0)
}

func (b *Builder) parseModel(model string, exclude map[string]struct{}, depth int) ([]TransferFieldDefinition, error) {
	fields, ok := b.registry.Fields(model)
	if !ok {
		return nil, &UnsupportedTypeError{
			FieldPath: model,
			Reason:    "model is not registered",
		}
	}

	defined := make([]TransferFieldDefinition, 0, len(fields))
	seenWireNames := make(map[string]string, len(fields))
	for _, field := range fields {
		descriptor, err := b.norm.Normalize(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", model, field.Name, err)
		}

		transferType, err := b.buildType(descriptor, filterExclude(exclude, field.Name), joinPath(model, field.Name), depth)
		if errors.Is(err, errNestedDepthExceeded) {
			continue
		}
		if err != nil {
			return nil, err
		}

		serializationName := field.Name
		if rename, ok := b.cfg.RenameFields[field.Name]; ok {
			serializationName = rename
		} else if b.cfg.RenameStrategy != RenameNone {
			serializationName = b.cfg.RenameStrategy.Apply(field.Name)
		}
		if prior, dup := seenWireNames[serializationName]; dup {
			return nil, fmt.Errorf("model %s: fields %q and %q share serialization name %q",
				model, prior, field.Name, serializationName)
		}
		seenWireNames[serializationName] = field.Name

		defined = append(defined, TransferFieldDefinition{
			FieldDefinition:   field,
			TransferType:      transferType,
			SerializationName: serializationName,
			// A Required wrapper pins the field even in partial schemas.
			IsPartial:  b.cfg.Partial && !descriptor.Wrappers.Has(typemap.WrapperRequired),
			IsExcluded: b.shouldExclude(field, exclude),
		})
	}
	return defined, nil
}

// buildType applies the classification rules in order: union, mapping,
// tuple, other single-argument container, leaf.
func (b *Builder) buildType(d typemap.TypeDescriptor, exclude map[string]struct{}, fieldPath string, depth int) (TransferType, error) {
	switch {
	case d.Origin == typemap.OriginUnion:
		return b.buildUnion(d, exclude, fieldPath, depth)
	case typemap.IsMappingOrigin(d.Origin):
		if len(d.Args) != 2 {
			return nil, &UnsupportedTypeError{
				FieldPath:  fieldPath,
				Descriptor: d,
				Reason:     fmt.Sprintf("mapping requires two type arguments, got %d", len(d.Args)),
			}
		}
		return b.buildMapping(d, exclude, fieldPath, depth)
	case d.Origin == typemap.OriginTuple:
		// A two-member tuple with a trailing variadic marker is a
		// homogeneous collection, not a fixed-arity tuple.
		if len(d.Args) == 2 && d.Args[1].Base.Kind == typemap.KindVariadic {
			return b.buildCollection(d, d.Args[0], exclude, fieldPath, depth)
		}
		for _, arg := range d.Args {
			if arg.Base.Kind == typemap.KindVariadic {
				return nil, &UnsupportedTypeError{
					FieldPath:  fieldPath,
					Descriptor: d,
					Reason:     "variadic marker in non-trailing tuple position",
				}
			}
		}
		return b.buildTuple(d, exclude, fieldPath, depth)
	case typemap.IsCollectionOrigin(d.Origin):
		if len(d.Args) != 1 {
			return nil, &UnsupportedTypeError{
				FieldPath:  fieldPath,
				Descriptor: d,
				Reason:     fmt.Sprintf("collection requires one type argument, got %d", len(d.Args)),
			}
		}
		return b.buildCollection(d, d.Args[0], exclude, fieldPath, depth)
	case d.Origin == typemap.OriginNone:
		return b.buildSimple(d, exclude, fieldPath, depth)
	default:
		return nil, &UnsupportedTypeError{
			FieldPath:  fieldPath,
			Descriptor: d,
			Reason:     "origin does not match any classification rule",
		}
	}
}

func (b *Builder) buildUnion(d typemap.TypeDescriptor, exclude map[string]struct{}, fieldPath string, depth int) (TransferType, error) {
	members := typemap.FlattenDescriptor(d)
	inner := make([]TransferType, 0, len(members))
	nested := false
	for i, member := range members {
		built, err := b.buildType(member, exclude, enumeratePath(fieldPath, i), depth)
		if err != nil {
			return nil, err
		}
		inner = append(inner, built)
		nested = nested || built.HasNested()
	}
	return UnionType{ParsedType: d, Inner: inner, Nested: nested}, nil
}

func (b *Builder) buildMapping(d typemap.TypeDescriptor, exclude map[string]struct{}, fieldPath string, depth int) (TransferType, error) {
	key, err := b.buildType(d.Args[0], exclude, enumeratePath(fieldPath, 0), depth)
	if err != nil {
		return nil, err
	}
	value, err := b.buildType(d.Args[1], exclude, enumeratePath(fieldPath, 1), depth)
	if err != nil {
		return nil, err
	}
	return MappingType{
		ParsedType: d,
		Key:        key,
		Value:      value,
		Nested:     key.HasNested() || value.HasNested(),
	}, nil
}

func (b *Builder) buildTuple(d typemap.TypeDescriptor, exclude map[string]struct{}, fieldPath string, depth int) (TransferType, error) {
	inner := make([]TransferType, 0, len(d.Args))
	nested := false
	for i, arg := range d.Args {
		built, err := b.buildType(arg, exclude, enumeratePath(fieldPath, i), depth)
		if err != nil {
			return nil, err
		}
		inner = append(inner, built)
		nested = nested || built.HasNested()
	}
	return TupleType{ParsedType: d, Inner: inner, Nested: nested}, nil
}

func (b *Builder) buildCollection(d, elem typemap.TypeDescriptor, exclude map[string]struct{}, fieldPath string, depth int) (TransferType, error) {
	inner, err := b.buildType(elem, exclude, enumeratePath(fieldPath, 0), depth)
	if err != nil {
		return nil, err
	}
	return CollectionType{ParsedType: d, Inner: inner, Nested: inner.HasNested()}, nil
}

func (b *Builder) buildSimple(d typemap.TypeDescriptor, exclude map[string]struct{}, fieldPath string, depth int) (TransferType, error) {
	if !d.Base.IsModel() {
		return SimpleType{ParsedType: d}, nil
	}

	model := d.Base.Name
	if _, ok := b.registry.Fields(model); !ok {
		return nil, &UnsupportedTypeError{
			FieldPath:  fieldPath,
			Descriptor: d,
			Reason:     fmt.Sprintf("model %q is not registered", model),
		}
	}

	// Already visiting this model: reference its in-progress info. Fields
	// are stitched in place once the first visit completes.
	if info, visiting := b.building[model]; visiting {
		return SimpleType{ParsedType: d, NestedInfo: info}, nil
	}

	if depth >= b.cfg.maxDepth() {
		return nil, errNestedDepthExceeded
	}

	info := &NestedFieldInfo{Model: d.Base}
	b.building[model] = info
	fields, err := b.parseModel(model, exclude, depth+1)
	delete(b.building, model)
	if err != nil {
		return nil, err
	}
	info.Fields = fields
	return SimpleType{ParsedType: d, NestedInfo: info}, nil
}

func (b *Builder) shouldExclude(field FieldDefinition, exclude map[string]struct{}) bool {
	if _, ok := exclude[field.Name]; ok {
		return true
	}
	if field.Mark == MarkPrivate {
		return true
	}
	return field.Mark == MarkReadOnly && b.cfg.Direction == DirectionIn
}

// filterExclude narrows a dotted exclusion set to entries applying below the
// given field, e.g. {"a.b", "c"} filtered by "a" yields {"b"}.
func filterExclude(exclude map[string]struct{}, fieldName string) map[string]struct{} {
	out := make(map[string]struct{})
	for path := range exclude {
		if rest, ok := strings.CutPrefix(path, fieldName+"."); ok {
			out[rest] = struct{}{}
		}
	}
	return out
}

func joinPath(model, field string) string {
	return model + "." + field
}

func enumeratePath(path string, index int) string {
	return fmt.Sprintf("%s[%d]", path, index)
}
