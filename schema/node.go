// Package schema builds deduplicated, hashable schema node trees from
// transfer types. Named composite schemas are registered in a per-document
// registry and threaded into OpenAPI components by reference.
package schema

// Type enumerates the primitive schema kinds.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeNull    Type = "null"
)

// SchemaOrRef is either an inline schema node or a named reference.
type SchemaOrRef interface {
	isSchemaOrRef()
}

// Ref is a named reference into the components section.
type Ref struct {
	Ref string `yaml:"$ref" json:"$ref"`
}

func (Ref) isSchemaOrRef() {}

// Node is one schema tree node. Composite forms use OneOf/AllOf; object
// nodes map property names to child nodes or references.
type Node struct {
	Type        Type   `yaml:"type,omitempty" json:"type,omitempty"`
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Format      string `yaml:"format,omitempty" json:"format,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Properties           map[string]SchemaOrRef `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required             []string               `yaml:"required,omitempty" json:"required,omitempty"`
	Items                SchemaOrRef            `yaml:"items,omitempty" json:"items,omitempty"`
	PrefixItems          []SchemaOrRef          `yaml:"prefixItems,omitempty" json:"prefixItems,omitempty"`
	AdditionalProperties SchemaOrRef            `yaml:"additionalProperties,omitempty" json:"additionalProperties,omitempty"`
	OneOf                []SchemaOrRef          `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
	AllOf                []SchemaOrRef          `yaml:"allOf,omitempty" json:"allOf,omitempty"`

	Enum             []string `yaml:"enum,omitempty" json:"enum,omitempty"`
	Pattern          string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Minimum          *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum          *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `yaml:"exclusiveMinimum,omitempty" json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `yaml:"exclusiveMaximum,omitempty" json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `yaml:"multipleOf,omitempty" json:"multipleOf,omitempty"`
	MinLength        *int     `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength        *int     `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	MinItems         *int     `yaml:"minItems,omitempty" json:"minItems,omitempty"`
	MaxItems         *int     `yaml:"maxItems,omitempty" json:"maxItems,omitempty"`
	UniqueItems      bool     `yaml:"uniqueItems,omitempty" json:"uniqueItems,omitempty"`
}

func (*Node) isSchemaOrRef() {}

// RefTo returns the components reference for a named schema.
func RefTo(name string) Ref {
	return Ref{Ref: "#/components/schemas/" + name}
}
