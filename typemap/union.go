package typemap

// Flatten decomposes a union annotation into a flat, ordered sequence of
// non-union member descriptors. Nested unions, including the optional
// single-nullable-member form, are recursively spliced in place. Order of
// first appearance is preserved and duplicates are not removed; schema
// deduplication happens downstream.
func (n Normalizer) Flatten(annotation Annotation) ([]TypeDescriptor, error) {
	descriptor, err := n.Normalize(annotation)
	if err != nil {
		return nil, err
	}
	if descriptor.Origin != OriginUnion {
		return nil, &MalformedAnnotationError{
			Reason: "flatten requires a union annotation, got " + descriptor.String(),
		}
	}
	return flattenMembers(descriptor), nil
}

// FlattenDescriptor is Flatten for an already normalized union descriptor.
func FlattenDescriptor(descriptor TypeDescriptor) []TypeDescriptor {
	if descriptor.Origin != OriginUnion {
		return []TypeDescriptor{descriptor}
	}
	return flattenMembers(descriptor)
}

func flattenMembers(union TypeDescriptor) []TypeDescriptor {
	var members []TypeDescriptor
	for _, arg := range union.Args {
		if arg.Origin == OriginUnion {
			members = append(members, flattenMembers(arg)...)
			continue
		}
		members = append(members, arg)
	}
	return members
}

// WithoutNone returns the union members excluding the none marker. When a
// single member remains it is returned directly instead of a one-member union.
func WithoutNone(union TypeDescriptor) TypeDescriptor {
	if union.Origin != OriginUnion {
		return union
	}
	var members []TypeDescriptor
	for _, member := range FlattenDescriptor(union) {
		if member.Base.Kind == KindNone {
			continue
		}
		members = append(members, member)
	}
	if len(members) == 1 {
		return members[0]
	}
	return TypeDescriptor{Origin: OriginUnion, Args: members}
}
