package typemap

import "fmt"

// DefaultMaxWrapperDepth bounds wrapper nesting during normalization.
const DefaultMaxWrapperDepth = 64

// MalformedAnnotationError reports an annotation that cannot be normalized,
// either because wrapper nesting exceeded the depth guard or because the
// annotation is structurally invalid.
type MalformedAnnotationError struct {
	Reason string
}

func (e *MalformedAnnotationError) Error() string {
	return fmt.Sprintf("malformed annotation: %s", e.Reason)
}

// TypeDescriptor is the canonical representation of a normalized annotation.
// Arguments is empty unless Origin denotes a parameterized container.
type TypeDescriptor struct {
	Base     BaseType
	Origin   Origin
	Args     []TypeDescriptor
	Metadata []any
	Wrappers WrapperSet
}

// IsUnion reports whether the descriptor denotes a union.
func (d TypeDescriptor) IsUnion() bool { return d.Origin == OriginUnion }

// IsOptional reports whether the descriptor is a union with a none member.
func (d TypeDescriptor) IsOptional() bool {
	if d.Origin != OriginUnion {
		return false
	}
	for _, arg := range d.Args {
		if arg.Origin == OriginNone && arg.Base.Kind == KindNone {
			return true
		}
	}
	return false
}

// String renders the descriptor for error messages and logging.
func (d TypeDescriptor) String() string {
	if d.Origin == OriginNone {
		return d.Base.String()
	}
	out := d.Origin.String() + "["
	for i, arg := range d.Args {
		if i > 0 {
			out += ", "
		}
		out += arg.String()
	}
	return out + "]"
}

// Normalizer converts raw annotations into TypeDescriptor values.
// The zero value is usable and applies DefaultMaxWrapperDepth.
type Normalizer struct {
	// MaxWrapperDepth overrides the wrapper nesting depth guard when positive.
	MaxWrapperDepth int
}

func (n Normalizer) maxDepth() int {
	if n.MaxWrapperDepth > 0 {
		return n.MaxWrapperDepth
	}
	return DefaultMaxWrapperDepth
}

// Normalize strips wrapper annotations exhaustively and produces the canonical
// descriptor. It is a pure function over immutable input.
func (n Normalizer) Normalize(annotation Annotation) (TypeDescriptor, error) {
	inner, metadata, wrappers, err := n.unwrap(annotation)
	if err != nil {
		return TypeDescriptor{}, err
	}

	switch a := inner.(type) {
	case Leaf:
		return TypeDescriptor{Base: a.Base, Origin: OriginNone, Metadata: metadata, Wrappers: wrappers}, nil
	case Generic:
		if len(a.Args) == 0 {
			return TypeDescriptor{}, &MalformedAnnotationError{
				Reason: fmt.Sprintf("parameterized container %q has no type arguments", a.Origin),
			}
		}
		args := make([]TypeDescriptor, len(a.Args))
		for i, arg := range a.Args {
			normalized, err := n.Normalize(arg)
			if err != nil {
				return TypeDescriptor{}, err
			}
			args[i] = normalized
		}
		return TypeDescriptor{Origin: a.Origin, Args: args, Metadata: metadata, Wrappers: wrappers}, nil
	default:
		return TypeDescriptor{}, &MalformedAnnotationError{Reason: "nil annotation"}
	}
}

// unwrap removes wrapper annotations, recording wrapper kinds and metadata in
// encounter order. Nesting is strictly decreasing in structural depth; the
// depth guard converts pathological input into a reported error.
func (n Normalizer) unwrap(annotation Annotation) (Annotation, []any, WrapperSet, error) {
	wrappers := make(WrapperSet)
	var metadata []any

	depth := 0
	for {
		wrapped, ok := annotation.(Wrapped)
		if !ok {
			return annotation, metadata, wrappers, nil
		}
		depth++
		if depth > n.maxDepth() {
			return nil, nil, nil, &MalformedAnnotationError{
				Reason: fmt.Sprintf("wrapper nesting exceeds depth guard of %d", n.maxDepth()),
			}
		}
		if wrapped.Inner == nil {
			return nil, nil, nil, &MalformedAnnotationError{
				Reason: fmt.Sprintf("%s wrapper has no inner annotation", wrapped.Kind),
			}
		}
		wrappers.add(wrapped.Kind)
		metadata = append(metadata, wrapped.Metadata...)
		annotation = wrapped.Inner
	}
}

// OriginOrBase returns the normalized origin of an annotation, unwrapping any
// wrappers first and collapsing abstract origins to their runtime container.
// Non-generic annotations yield OriginNone.
func (n Normalizer) OriginOrBase(annotation Annotation) (Origin, error) {
	inner, _, _, err := n.unwrap(annotation)
	if err != nil {
		return OriginNone, err
	}
	if generic, ok := inner.(Generic); ok {
		return RuntimeContainer(generic.Origin), nil
	}
	return OriginNone, nil
}
