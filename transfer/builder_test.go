package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/typemap"
)

func newTestRegistry() *Registry {
	registry := NewRegistry()
	registry.Register("Address",
		FieldDefinition{Name: "street", Type: typemap.String},
		FieldDefinition{Name: "city", Type: typemap.String},
	)
	registry.Register("User",
		FieldDefinition{Name: "id", Type: typemap.String},
		FieldDefinition{Name: "tags", Type: typemap.ListOf(typemap.String)},
		FieldDefinition{Name: "parent", Type: typemap.Optional(typemap.Model("User"))},
	)
	registry.Register("Order",
		FieldDefinition{Name: "number", Type: typemap.Int},
		FieldDefinition{Name: "shipping", Type: typemap.Model("Address")},
		FieldDefinition{Name: "items", Type: typemap.MapOf(typemap.String, typemap.Int)},
	)
	return registry
}

func TestBuildModelClassifiesFieldShapes(t *testing.T) {
	builder := NewBuilder(newTestRegistry(), Config{})

	fields, err := builder.BuildModel("User")
	require.NoError(t, err)
	require.Len(t, fields, 3)

	id := fields[0]
	simple, ok := id.TransferType.(SimpleType)
	require.True(t, ok)
	assert.Nil(t, simple.NestedInfo)
	assert.False(t, simple.HasNested())

	tags := fields[1]
	collection, ok := tags.TransferType.(CollectionType)
	require.True(t, ok)
	inner, ok := collection.Inner.(SimpleType)
	require.True(t, ok)
	assert.Equal(t, typemap.KindString, inner.ParsedType.Base.Kind)
	assert.False(t, collection.HasNested())

	parent := fields[2]
	union, ok := parent.TransferType.(UnionType)
	require.True(t, ok)
	require.Len(t, union.Inner, 2)
	assert.True(t, union.HasNested())

	selfRef, ok := union.Inner[0].(SimpleType)
	require.True(t, ok)
	require.NotNil(t, selfRef.NestedInfo)
	assert.Equal(t, "User", selfRef.NestedInfo.Model.Name)

	noneMember, ok := union.Inner[1].(SimpleType)
	require.True(t, ok)
	assert.Equal(t, typemap.KindNone, noneMember.ParsedType.Base.Kind)
}

func TestSelfReferentialModelTerminatesAndStitches(t *testing.T) {
	builder := NewBuilder(newTestRegistry(), Config{})

	fields, err := builder.BuildModel("User")
	require.NoError(t, err)

	union := fields[2].TransferType.(UnionType)
	selfRef := union.Inner[0].(SimpleType)

	// The deferred reference resolves to the root's own field set.
	require.Len(t, selfRef.NestedInfo.Fields, 3)
	innerUnion, ok := selfRef.NestedInfo.Fields[2].TransferType.(UnionType)
	require.True(t, ok)
	innerRef := innerUnion.Inner[0].(SimpleType)
	assert.Same(t, selfRef.NestedInfo, innerRef.NestedInfo)
}

func TestHasNestedPropagatesBottomUp(t *testing.T) {
	builder := NewBuilder(newTestRegistry(), Config{})

	fields, err := builder.BuildModel("Order")
	require.NoError(t, err)
	require.Len(t, fields, 3)

	shipping := fields[1].TransferType.(SimpleType)
	assert.True(t, shipping.HasNested())
	require.NotNil(t, shipping.NestedInfo)
	assert.Equal(t, "Address", shipping.NestedInfo.Model.Name)

	items, ok := fields[2].TransferType.(MappingType)
	require.True(t, ok)
	assert.False(t, items.HasNested())
}

func TestBuildTypeTupleAndVariadic(t *testing.T) {
	builder := NewBuilder(newTestRegistry(), Config{})
	var n typemap.Normalizer

	fixed, err := n.Normalize(typemap.TupleOf(typemap.String, typemap.Int))
	require.NoError(t, err)
	tt, err := builder.BuildType(fixed)
	require.NoError(t, err)
	tuple, ok := tt.(TupleType)
	require.True(t, ok)
	assert.Len(t, tuple.Inner, 2)

	variadic, err := n.Normalize(typemap.TupleOf(typemap.String, typemap.Variadic))
	require.NoError(t, err)
	tt, err = builder.BuildType(variadic)
	require.NoError(t, err)
	_, ok = tt.(CollectionType)
	assert.True(t, ok)
}

func TestBuildTypeRejectsMalformedComposites(t *testing.T) {
	builder := NewBuilder(newTestRegistry(), Config{})
	var n typemap.Normalizer

	tests := []struct {
		name       string
		annotation typemap.Annotation
	}{
		{"single argument mapping", typemap.Generic{Origin: typemap.OriginDict, Args: []typemap.Annotation{typemap.String}}},
		{"two element collection", typemap.Generic{Origin: typemap.OriginList, Args: []typemap.Annotation{typemap.String, typemap.Int}}},
		{"leading variadic tuple", typemap.TupleOf(typemap.Variadic, typemap.String)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptor, err := n.Normalize(tt.annotation)
			require.NoError(t, err)

			_, err = builder.BuildType(descriptor)
			require.Error(t, err)

			var unsupported *UnsupportedTypeError
			assert.ErrorAs(t, err, &unsupported)
		})
	}
}

func TestUnregisteredModelFails(t *testing.T) {
	registry := NewRegistry()
	registry.Register("Thing", FieldDefinition{Name: "ref", Type: typemap.Model("Ghost")})

	builder := NewBuilder(registry, Config{})
	_, err := builder.BuildModel("Thing")
	require.Error(t, err)

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.FieldPath, "Thing.ref")
}

func TestNestedDepthLimitSkipsField(t *testing.T) {
	registry := NewRegistry()
	registry.Register("A",
		FieldDefinition{Name: "name", Type: typemap.String},
		FieldDefinition{Name: "b", Type: typemap.Model("B")},
	)
	registry.Register("B",
		FieldDefinition{Name: "name", Type: typemap.String},
		FieldDefinition{Name: "c", Type: typemap.Model("C")},
	)
	registry.Register("C",
		FieldDefinition{Name: "name", Type: typemap.String},
	)

	builder := NewBuilder(registry, Config{MaxNestedDepth: 1})
	fields, err := builder.BuildModel("A")
	require.NoError(t, err)
	require.Len(t, fields, 2)

	b := fields[1].TransferType.(SimpleType)
	require.NotNil(t, b.NestedInfo)
	// C sits past the depth limit; its field was skipped, not rejected.
	require.Len(t, b.NestedInfo.Fields, 1)
	assert.Equal(t, "name", b.NestedInfo.Fields[0].Name)
}

func TestRenameAndExclusion(t *testing.T) {
	registry := NewRegistry()
	registry.Register("Account",
		FieldDefinition{Name: "account_id", Type: typemap.String},
		FieldDefinition{Name: "display_name", Type: typemap.String},
		FieldDefinition{Name: "secret_token", Type: typemap.String, Mark: MarkPrivate},
		FieldDefinition{Name: "created_at", Type: typemap.Time, Mark: MarkReadOnly},
	)

	builder := NewBuilder(registry, Config{
		RenameStrategy: RenameCamel,
		RenameFields:   map[string]string{"account_id": "id"},
		Direction:      DirectionIn,
	})

	fields, err := builder.BuildModel("Account")
	require.NoError(t, err)
	require.Len(t, fields, 4)

	assert.Equal(t, "id", fields[0].SerializationName)
	assert.Equal(t, "displayName", fields[1].SerializationName)
	assert.True(t, fields[2].IsExcluded, "private fields are always excluded")
	assert.True(t, fields[3].IsExcluded, "read-only fields are excluded inbound")

	outBuilder := NewBuilder(registry, Config{Direction: DirectionOut})
	outFields, err := outBuilder.BuildModel("Account")
	require.NoError(t, err)
	assert.False(t, outFields[3].IsExcluded, "read-only fields transfer outbound")
}

func TestDottedExclusionReachesNestedModel(t *testing.T) {
	builder := NewBuilder(newTestRegistry(), Config{Exclude: []string{"shipping.city"}})

	fields, err := builder.BuildModel("Order")
	require.NoError(t, err)

	shipping := fields[1].TransferType.(SimpleType)
	require.NotNil(t, shipping.NestedInfo)
	require.Len(t, shipping.NestedInfo.Fields, 2)
	assert.False(t, shipping.NestedInfo.Fields[0].IsExcluded)
	assert.True(t, shipping.NestedInfo.Fields[1].IsExcluded)
}

func TestDuplicateSerializationNameFails(t *testing.T) {
	registry := NewRegistry()
	registry.Register("Clash",
		FieldDefinition{Name: "a", Type: typemap.String},
		FieldDefinition{Name: "b", Type: typemap.String},
	)

	builder := NewBuilder(registry, Config{RenameFields: map[string]string{"a": "x", "b": "x"}})
	_, err := builder.BuildModel("Clash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serialization name")
}

func TestRenameStrategies(t *testing.T) {
	tests := []struct {
		strategy RenameStrategy
		in, want string
	}{
		{RenameUpper, "field_name", "FIELD_NAME"},
		{RenameLower, "Field_Name", "field_name"},
		{RenameCamel, "field_name_long", "fieldNameLong"},
		{RenameKebab, "field_name", "field-name"},
		{RenameNone, "field_name", "field_name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.strategy.Apply(tt.in))
	}
}
