package schema

import (
	"fmt"

	"github.com/skiffworks/skiff/transfer"
	"github.com/skiffworks/skiff/typemap"
)

// Builder converts transfer type trees into schema nodes, registering named
// object schemas for nested models in the shared registry. A Builder is not
// safe for concurrent use; run one per goroutine against a shared Registry.
type Builder struct {
	registry *Registry
	visiting map[string]struct{}
}

// NewBuilder creates a builder writing named schemas into registry.
func NewBuilder(registry *Registry) *Builder {
	return &Builder{
		registry: registry,
		visiting: make(map[string]struct{}),
	}
}

// Registry exposes the registry the builder registers named schemas into.
func (b *Builder) Registry() *Registry { return b.registry }

// Build converts a transfer type into an inline schema node or, for nested
// models, a reference into the components section.
func (b *Builder) Build(tt transfer.TransferType) (SchemaOrRef, error) {
	switch t := tt.(type) {
	case transfer.SimpleType:
		if t.NestedInfo != nil {
			return b.buildModel(t.NestedInfo)
		}
		return b.buildPrimitive(t.ParsedType), nil
	case transfer.UnionType:
		return b.buildUnion(t)
	case transfer.CollectionType:
		return b.buildCollection(t)
	case transfer.TupleType:
		return b.buildTuple(t)
	case transfer.MappingType:
		return b.buildMapping(t)
	default:
		return nil, fmt.Errorf("unknown transfer type %T", tt)
	}
}

// BuildNamed registers the named object schema for a resolved transfer
// field set and returns its components reference.
func (b *Builder) BuildNamed(model string, fields []transfer.TransferFieldDefinition) (SchemaOrRef, error) {
	return b.buildModel(&transfer.NestedFieldInfo{
		Model:  typemap.BaseType{Kind: typemap.KindModel, Name: model},
		Fields: fields,
	})
}

// buildModel registers a named object schema for a nested model and returns
// a reference to it. The name is reserved before fields are walked so that
// recursive references resolve to the reserved entry instead of recursing.
func (b *Builder) buildModel(info *transfer.NestedFieldInfo) (SchemaOrRef, error) {
	name := info.Model.Name
	if _, ok := b.visiting[name]; ok {
		return RefTo(name), nil
	}
	b.visiting[name] = struct{}{}
	defer delete(b.visiting, name)
	b.registry.placeholder(name)

	node := &Node{
		Type:       TypeObject,
		Title:      name,
		Properties: make(map[string]SchemaOrRef, len(info.Fields)),
	}
	for _, field := range info.Fields {
		if field.IsExcluded {
			continue
		}
		prop, err := b.Build(field.TransferType)
		if err != nil {
			return nil, err
		}
		node.Properties[field.SerializationName] = prop
		if b.fieldRequired(field) {
			node.Required = append(node.Required, field.SerializationName)
		}
	}
	return b.registry.finalize(name, node)
}

func (b *Builder) fieldRequired(field transfer.TransferFieldDefinition) bool {
	parsed := field.TransferType.Parsed()
	if parsed.Wrappers.Has(typemap.WrapperNotRequired) {
		return false
	}
	if field.HasDefaultValue() {
		return false
	}
	if field.IsPartial && !parsed.Wrappers.Has(typemap.WrapperRequired) {
		return false
	}
	return !parsed.IsOptional()
}

func (b *Builder) buildPrimitive(d typemap.TypeDescriptor) *Node {
	switch d.Base.Kind {
	case typemap.KindString:
		return &Node{Type: TypeString}
	case typemap.KindInt:
		return &Node{Type: TypeInteger}
	case typemap.KindFloat:
		return &Node{Type: TypeNumber}
	case typemap.KindBool:
		return &Node{Type: TypeBoolean}
	case typemap.KindBytes:
		return &Node{Type: TypeString, Format: "byte"}
	case typemap.KindTime:
		return &Node{Type: TypeString, Format: "date-time"}
	case typemap.KindUUID:
		return &Node{Type: TypeString, Format: "uuid"}
	case typemap.KindNone:
		return &Node{Type: TypeNull}
	default:
		// KindAny and unconstrained leaves accept any value.
		return &Node{}
	}
}

// buildUnion emits a oneOf over member schemas in declaration order, with
// the null member hoisted first for optional unions.
func (b *Builder) buildUnion(t transfer.UnionType) (SchemaOrRef, error) {
	members := make([]SchemaOrRef, 0, len(t.Inner))
	var nullMember SchemaOrRef
	for _, inner := range t.Inner {
		member, err := b.Build(inner)
		if err != nil {
			return nil, err
		}
		if node, ok := member.(*Node); ok && node.Type == TypeNull {
			nullMember = member
			continue
		}
		members = append(members, member)
	}
	if nullMember != nil {
		members = append([]SchemaOrRef{nullMember}, members...)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return &Node{OneOf: members}, nil
}

func (b *Builder) buildCollection(t transfer.CollectionType) (SchemaOrRef, error) {
	items, err := b.Build(t.Inner)
	if err != nil {
		return nil, err
	}
	node := &Node{Type: TypeArray, Items: items}
	switch t.ParsedType.Origin {
	case typemap.OriginSet, typemap.OriginFrozenSet:
		node.UniqueItems = true
	}
	return node, nil
}

func (b *Builder) buildTuple(t transfer.TupleType) (SchemaOrRef, error) {
	prefix := make([]SchemaOrRef, 0, len(t.Inner))
	for _, inner := range t.Inner {
		item, err := b.Build(inner)
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, item)
	}
	arity := len(prefix)
	return &Node{
		Type:        TypeArray,
		PrefixItems: prefix,
		MinItems:    &arity,
		MaxItems:    &arity,
	}, nil
}

func (b *Builder) buildMapping(t transfer.MappingType) (SchemaOrRef, error) {
	value, err := b.Build(t.Value)
	if err != nil {
		return nil, err
	}
	return &Node{Type: TypeObject, AdditionalProperties: value}, nil
}
