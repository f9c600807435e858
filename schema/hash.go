package schema

import (
	"hash/fnv"
	"sort"
	"strconv"
)

// StructuralHash fingerprints a schema tree by shape and constraints.
// Unordered constructs (properties, required, oneOf, enum) hash the same
// regardless of declaration order; ordered constructs (prefixItems, allOf)
// do not. References hash by target name, which keeps self-referential
// trees finite.
func StructuralHash(s SchemaOrRef) uint64 {
	h := fnv.New64a()
	writeSchema(h, s)
	return h.Sum64()
}

type hasher interface {
	Write(p []byte) (int, error)
	Sum64() uint64
}

func writeSchema(h hasher, s SchemaOrRef) {
	switch v := s.(type) {
	case nil:
		h.Write([]byte("nil;"))
	case Ref:
		h.Write([]byte("$ref:" + v.Ref + ";"))
	case *Node:
		writeNode(h, v)
	}
}

func writeNode(h hasher, n *Node) {
	if n == nil {
		h.Write([]byte("nil;"))
		return
	}
	h.Write([]byte("node:" + string(n.Type) + ":" + n.Format + ";"))

	if len(n.Properties) > 0 {
		names := make([]string, 0, len(n.Properties))
		for name := range n.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		h.Write([]byte("props{"))
		for _, name := range names {
			h.Write([]byte(name + "="))
			writeSchema(h, n.Properties[name])
		}
		h.Write([]byte("}"))
	}
	if len(n.Required) > 0 {
		required := append([]string(nil), n.Required...)
		sort.Strings(required)
		h.Write([]byte("required{"))
		for _, name := range required {
			h.Write([]byte(name + ";"))
		}
		h.Write([]byte("}"))
	}
	if n.Items != nil {
		h.Write([]byte("items{"))
		writeSchema(h, n.Items)
		h.Write([]byte("}"))
	}
	if len(n.PrefixItems) > 0 {
		h.Write([]byte("prefix{"))
		for _, item := range n.PrefixItems {
			writeSchema(h, item)
		}
		h.Write([]byte("}"))
	}
	if n.AdditionalProperties != nil {
		h.Write([]byte("additional{"))
		writeSchema(h, n.AdditionalProperties)
		h.Write([]byte("}"))
	}
	if len(n.OneOf) > 0 {
		members := make([]uint64, 0, len(n.OneOf))
		for _, member := range n.OneOf {
			sub := fnv.New64a()
			writeSchema(sub, member)
			members = append(members, sub.Sum64())
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		h.Write([]byte("oneOf{"))
		for _, sum := range members {
			h.Write([]byte(strconv.FormatUint(sum, 16) + ";"))
		}
		h.Write([]byte("}"))
	}
	if len(n.AllOf) > 0 {
		h.Write([]byte("allOf{"))
		for _, member := range n.AllOf {
			writeSchema(h, member)
		}
		h.Write([]byte("}"))
	}
	if len(n.Enum) > 0 {
		values := append([]string(nil), n.Enum...)
		sort.Strings(values)
		h.Write([]byte("enum{"))
		for _, v := range values {
			h.Write([]byte(v + ";"))
		}
		h.Write([]byte("}"))
	}

	writeConstraints(h, n)
}

func writeConstraints(h hasher, n *Node) {
	writeFloat := func(label string, v *float64) {
		if v != nil {
			h.Write([]byte(label + "=" + strconv.FormatFloat(*v, 'g', -1, 64) + ";"))
		}
	}
	writeInt := func(label string, v *int) {
		if v != nil {
			h.Write([]byte(label + "=" + strconv.Itoa(*v) + ";"))
		}
	}
	if n.Pattern != "" {
		h.Write([]byte("pattern=" + n.Pattern + ";"))
	}
	writeFloat("min", n.Minimum)
	writeFloat("max", n.Maximum)
	writeFloat("emin", n.ExclusiveMinimum)
	writeFloat("emax", n.ExclusiveMaximum)
	writeFloat("mult", n.MultipleOf)
	writeInt("minLen", n.MinLength)
	writeInt("maxLen", n.MaxLength)
	writeInt("minItems", n.MinItems)
	writeInt("maxItems", n.MaxItems)
	if n.UniqueItems {
		h.Write([]byte("unique;"))
	}
}
