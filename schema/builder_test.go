package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/transfer"
	"github.com/skiffworks/skiff/typemap"
)

func buildFields(t *testing.T, reg *transfer.Registry, model string, cfg transfer.Config) []transfer.TransferFieldDefinition {
	t.Helper()
	fields, err := transfer.NewBuilder(reg, cfg).BuildModel(model)
	require.NoError(t, err)
	return fields
}

func TestBuildNamedObjectSchema(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("User",
		transfer.FieldDefinition{Name: "id", Type: typemap.UUID},
		transfer.FieldDefinition{Name: "name", Type: typemap.String},
		transfer.FieldDefinition{Name: "age", Type: typemap.Int, Default: 0, HasDefault: true},
		transfer.FieldDefinition{Name: "nickname", Type: typemap.Optional(typemap.String)},
	)
	fields := buildFields(t, models, "User", transfer.Config{})

	registry := NewRegistry()
	ref, err := NewBuilder(registry).BuildNamed("User", fields)
	require.NoError(t, err)
	assert.Equal(t, RefTo("User"), ref)

	node := registry.Schemas()["User"]
	require.NotNil(t, node)
	assert.Equal(t, TypeObject, node.Type)
	assert.Equal(t, "User", node.Title)
	assert.Len(t, node.Properties, 4)
	assert.Equal(t, &Node{Type: TypeString, Format: "uuid"}, node.Properties["id"])

	// Defaults and optionality both lift requiredness.
	assert.ElementsMatch(t, []string{"id", "name"}, node.Required)

	optional, ok := node.Properties["nickname"].(*Node)
	require.True(t, ok)
	require.Len(t, optional.OneOf, 2)
	assert.Equal(t, &Node{Type: TypeNull}, optional.OneOf[0])
	assert.Equal(t, &Node{Type: TypeString}, optional.OneOf[1])
}

func TestBuildNestedModelRegistersReference(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("Address",
		transfer.FieldDefinition{Name: "city", Type: typemap.String},
	)
	models.Register("Customer",
		transfer.FieldDefinition{Name: "name", Type: typemap.String},
		transfer.FieldDefinition{Name: "address", Type: typemap.Model("Address")},
	)
	fields := buildFields(t, models, "Customer", transfer.Config{})

	registry := NewRegistry()
	_, err := NewBuilder(registry).BuildNamed("Customer", fields)
	require.NoError(t, err)

	assert.Equal(t, []string{"Address", "Customer"}, registry.Names())
	customer := registry.Schemas()["Customer"]
	assert.Equal(t, RefTo("Address"), customer.Properties["address"])
}

func TestBuildSameModelTwiceRegistersOnce(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("Tag",
		transfer.FieldDefinition{Name: "label", Type: typemap.String},
	)
	fields := buildFields(t, models, "Tag", transfer.Config{})

	registry := NewRegistry()
	builder := NewBuilder(registry)
	first, err := builder.BuildNamed("Tag", fields)
	require.NoError(t, err)
	second, err := builder.BuildNamed("Tag", fields)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, registry.Len())
}

func TestBuildIdenticalStructureDifferentNamesNotMerged(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("CreateUser",
		transfer.FieldDefinition{Name: "name", Type: typemap.String},
	)
	models.Register("UpdateUser",
		transfer.FieldDefinition{Name: "name", Type: typemap.String},
	)

	registry := NewRegistry()
	builder := NewBuilder(registry)
	_, err := builder.BuildNamed("CreateUser", buildFields(t, models, "CreateUser", transfer.Config{}))
	require.NoError(t, err)
	_, err = builder.BuildNamed("UpdateUser", buildFields(t, models, "UpdateUser", transfer.Config{}))
	require.NoError(t, err)

	assert.Equal(t, []string{"CreateUser", "UpdateUser"}, registry.Names())
}

func TestBuildNameConflictDifferentStructure(t *testing.T) {
	registry := NewRegistry()
	builder := NewBuilder(registry)

	one := transfer.NewRegistry()
	one.Register("Payload", transfer.FieldDefinition{Name: "a", Type: typemap.String})
	_, err := builder.BuildNamed("Payload", buildFields(t, one, "Payload", transfer.Config{}))
	require.NoError(t, err)

	two := transfer.NewRegistry()
	two.Register("Payload", transfer.FieldDefinition{Name: "a", Type: typemap.Int})
	_, err = builder.BuildNamed("Payload", buildFields(t, two, "Payload", transfer.Config{}))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Payload", conflict.Name)
}

func TestBuildSelfReferentialModel(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("Category",
		transfer.FieldDefinition{Name: "name", Type: typemap.String},
		transfer.FieldDefinition{Name: "parent", Type: typemap.Optional(typemap.Model("Category"))},
	)
	fields := buildFields(t, models, "Category", transfer.Config{})

	registry := NewRegistry()
	_, err := NewBuilder(registry).BuildNamed("Category", fields)
	require.NoError(t, err)

	node := registry.Schemas()["Category"]
	require.NotNil(t, node)
	parent, ok := node.Properties["parent"].(*Node)
	require.True(t, ok)
	require.Len(t, parent.OneOf, 2)
	assert.Equal(t, RefTo("Category"), parent.OneOf[1])
}

func TestBuildContainersAndTuples(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("Shape",
		transfer.FieldDefinition{Name: "tags", Type: typemap.SetOf(typemap.String)},
		transfer.FieldDefinition{Name: "point", Type: typemap.TupleOf(typemap.Float, typemap.Float)},
		transfer.FieldDefinition{Name: "attrs", Type: typemap.MapOf(typemap.String, typemap.Int)},
	)
	fields := buildFields(t, models, "Shape", transfer.Config{})

	registry := NewRegistry()
	_, err := NewBuilder(registry).BuildNamed("Shape", fields)
	require.NoError(t, err)
	node := registry.Schemas()["Shape"]

	tags := node.Properties["tags"].(*Node)
	assert.Equal(t, TypeArray, tags.Type)
	assert.True(t, tags.UniqueItems)
	assert.Equal(t, &Node{Type: TypeString}, tags.Items)

	point := node.Properties["point"].(*Node)
	assert.Equal(t, TypeArray, point.Type)
	require.Len(t, point.PrefixItems, 2)
	require.NotNil(t, point.MinItems)
	assert.Equal(t, 2, *point.MinItems)
	require.NotNil(t, point.MaxItems)
	assert.Equal(t, 2, *point.MaxItems)

	attrs := node.Properties["attrs"].(*Node)
	assert.Equal(t, TypeObject, attrs.Type)
	assert.Equal(t, &Node{Type: TypeInteger}, attrs.AdditionalProperties)
}

func TestBuildExcludedFieldsOmitted(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("Account",
		transfer.FieldDefinition{Name: "email", Type: typemap.String},
		transfer.FieldDefinition{Name: "password_hash", Type: typemap.String, Mark: transfer.MarkPrivate},
	)
	fields := buildFields(t, models, "Account", transfer.Config{})

	registry := NewRegistry()
	_, err := NewBuilder(registry).BuildNamed("Account", fields)
	require.NoError(t, err)
	node := registry.Schemas()["Account"]

	assert.Len(t, node.Properties, 1)
	assert.Contains(t, node.Properties, "email")
	assert.Equal(t, []string{"email"}, node.Required)
}

func TestBuildWrapperRequiredness(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("Document",
		transfer.FieldDefinition{Name: "title", Type: typemap.String},
		transfer.FieldDefinition{Name: "subtitle", Type: typemap.NotRequired(typemap.String)},
	)
	fields := buildFields(t, models, "Document", transfer.Config{})

	registry := NewRegistry()
	_, err := NewBuilder(registry).BuildNamed("Document", fields)
	require.NoError(t, err)

	node := registry.Schemas()["Document"]
	require.NotNil(t, node)
	assert.Len(t, node.Properties, 2)
	assert.Equal(t, []string{"title"}, node.Required)
}

func TestBuildRequiredWrapperSurvivesPartial(t *testing.T) {
	models := transfer.NewRegistry()
	models.Register("Patch",
		transfer.FieldDefinition{Name: "id", Type: typemap.Required(typemap.String)},
		transfer.FieldDefinition{Name: "note", Type: typemap.String},
	)
	fields := buildFields(t, models, "Patch", transfer.Config{Partial: true})

	registry := NewRegistry()
	_, err := NewBuilder(registry).BuildNamed("Patch", fields)
	require.NoError(t, err)

	node := registry.Schemas()["Patch"]
	require.NotNil(t, node)
	assert.Equal(t, []string{"id"}, node.Required)
}
