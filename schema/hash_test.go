package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuralHashPropertyOrderInsensitive(t *testing.T) {
	a := &Node{
		Type: TypeObject,
		Properties: map[string]SchemaOrRef{
			"x": &Node{Type: TypeString},
			"y": &Node{Type: TypeInteger},
		},
		Required: []string{"x", "y"},
	}
	b := &Node{
		Type: TypeObject,
		Properties: map[string]SchemaOrRef{
			"y": &Node{Type: TypeInteger},
			"x": &Node{Type: TypeString},
		},
		Required: []string{"y", "x"},
	}
	assert.Equal(t, StructuralHash(a), StructuralHash(b))
}

func TestStructuralHashOneOfOrderInsensitive(t *testing.T) {
	a := &Node{OneOf: []SchemaOrRef{&Node{Type: TypeString}, &Node{Type: TypeNull}}}
	b := &Node{OneOf: []SchemaOrRef{&Node{Type: TypeNull}, &Node{Type: TypeString}}}
	assert.Equal(t, StructuralHash(a), StructuralHash(b))
}

func TestStructuralHashPrefixItemsOrderSensitive(t *testing.T) {
	a := &Node{Type: TypeArray, PrefixItems: []SchemaOrRef{&Node{Type: TypeString}, &Node{Type: TypeInteger}}}
	b := &Node{Type: TypeArray, PrefixItems: []SchemaOrRef{&Node{Type: TypeInteger}, &Node{Type: TypeString}}}
	assert.NotEqual(t, StructuralHash(a), StructuralHash(b))
}

func TestStructuralHashDistinguishesConstraints(t *testing.T) {
	min := 1.0
	a := &Node{Type: TypeInteger}
	b := &Node{Type: TypeInteger, Minimum: &min}
	assert.NotEqual(t, StructuralHash(a), StructuralHash(b))
}

func TestStructuralHashRefsByTargetName(t *testing.T) {
	a := &Node{Type: TypeObject, Properties: map[string]SchemaOrRef{"next": RefTo("Node")}}
	b := &Node{Type: TypeObject, Properties: map[string]SchemaOrRef{"next": RefTo("Node")}}
	c := &Node{Type: TypeObject, Properties: map[string]SchemaOrRef{"next": RefTo("Other")}}
	assert.Equal(t, StructuralHash(a), StructuralHash(b))
	assert.NotEqual(t, StructuralHash(a), StructuralHash(c))
}

func TestStructuralHashIgnoresTitle(t *testing.T) {
	a := &Node{Type: TypeObject, Title: "CreateUser"}
	b := &Node{Type: TypeObject, Title: "UpdateUser"}
	assert.Equal(t, StructuralHash(a), StructuralHash(b))
}
