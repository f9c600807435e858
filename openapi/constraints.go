package openapi

import (
	"github.com/skiffworks/skiff/params"
	"github.com/skiffworks/skiff/schema"
	"github.com/skiffworks/skiff/typemap"
)

// parameterSchema builds the inline schema for a resolved parameter from its
// coercion kind and validation constraints.
func parameterSchema(p params.ResolvedParameter) *schema.Node {
	node := baseSchema(p.Kind())
	applyConstraints(node, p.Constraints)
	return node
}

func baseSchema(kind typemap.BaseKind) *schema.Node {
	switch kind {
	case typemap.KindInt:
		return &schema.Node{Type: schema.TypeInteger}
	case typemap.KindFloat:
		return &schema.Node{Type: schema.TypeNumber}
	case typemap.KindBool:
		return &schema.Node{Type: schema.TypeBoolean}
	case typemap.KindUUID:
		return &schema.Node{Type: schema.TypeString, Format: "uuid"}
	case typemap.KindTime:
		return &schema.Node{Type: schema.TypeString, Format: "date-time"}
	default:
		return &schema.Node{Type: schema.TypeString}
	}
}

// applyConstraints maps validation constraints onto schema keywords.
// Numeric bounds become minimum/maximum, or their exclusive forms.
// Length bounds apply to strings only.
func applyConstraints(node *schema.Node, c params.Constraints) {
	if c.Min != nil {
		if c.ExclusiveMin {
			node.ExclusiveMinimum = c.Min
		} else {
			node.Minimum = c.Min
		}
	}
	if c.Max != nil {
		if c.ExclusiveMax {
			node.ExclusiveMaximum = c.Max
		} else {
			node.Maximum = c.Max
		}
	}
	node.MultipleOf = c.MultipleOf
	if node.Type == schema.TypeString {
		node.MinLength = c.MinLength
		node.MaxLength = c.MaxLength
		node.Pattern = c.Pattern
	}
	if len(c.Enum) > 0 {
		node.Enum = append([]string(nil), c.Enum...)
	}
}
