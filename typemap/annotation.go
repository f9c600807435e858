// Package typemap normalizes type annotations into a canonical descriptor form.
// Annotations are modeled as a closed tagged variant so the rest of the framework
// never inspects runtime types directly.
package typemap

// BaseKind enumerates the leaf type categories the framework understands.
type BaseKind int

const (
	KindAny BaseKind = iota
	KindNone
	KindString
	KindInt
	KindFloat
	KindBool
	KindBytes
	KindTime
	KindUUID
	KindVariadic
	KindModel
)

// String returns the lowercase name of the kind, used in error messages and hashes.
func (k BaseKind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindUUID:
		return "uuid"
	case KindVariadic:
		return "..."
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// BaseType is an opaque handle for a concrete, non-generic type.
// For model types Name carries the unique model name; for built-in
// leaves Name mirrors the kind.
type BaseType struct {
	Kind BaseKind
	Name string
}

// String returns a display name for the base type.
func (b BaseType) String() string {
	if b.Kind == KindModel {
		return b.Name
	}
	return b.Kind.String()
}

// IsModel reports whether the base type refers to a registered model.
func (b BaseType) IsModel() bool { return b.Kind == KindModel }

// WrapperKind identifies a wrapper annotation that carries an inner type.
type WrapperKind int

const (
	WrapperAnnotated WrapperKind = iota + 1
	WrapperRequired
	WrapperNotRequired
)

// String returns the wrapper kind name.
func (w WrapperKind) String() string {
	switch w {
	case WrapperAnnotated:
		return "annotated"
	case WrapperRequired:
		return "required"
	case WrapperNotRequired:
		return "notrequired"
	default:
		return "unknown"
	}
}

// WrapperSet records which wrapper kinds were stripped from an annotation.
type WrapperSet map[WrapperKind]struct{}

// Has reports whether the set contains the given kind.
func (s WrapperSet) Has(k WrapperKind) bool {
	_, ok := s[k]
	return ok
}

func (s WrapperSet) add(k WrapperKind) { s[k] = struct{}{} }

// Annotation is the closed variant over type annotation shapes.
// Implementations: Leaf, Generic and Wrapped.
type Annotation interface {
	isAnnotation()
}

// Leaf is a concrete, non-generic type annotation.
type Leaf struct {
	Base BaseType
}

func (Leaf) isAnnotation() {}

// Generic is a parameterized container annotation, including unions.
type Generic struct {
	Origin Origin
	Args   []Annotation
}

func (Generic) isAnnotation() {}

// Wrapped is a wrapper annotation holding an inner annotation plus
// optional metadata payloads (constraints, documentation, examples).
type Wrapped struct {
	Kind     WrapperKind
	Inner    Annotation
	Metadata []any
}

func (Wrapped) isAnnotation() {}

// Convenience leaves shared across the framework.
var (
	Any      = Leaf{Base: BaseType{Kind: KindAny, Name: "any"}}
	None     = Leaf{Base: BaseType{Kind: KindNone, Name: "none"}}
	String   = Leaf{Base: BaseType{Kind: KindString, Name: "string"}}
	Int      = Leaf{Base: BaseType{Kind: KindInt, Name: "int"}}
	Float    = Leaf{Base: BaseType{Kind: KindFloat, Name: "float"}}
	Bool     = Leaf{Base: BaseType{Kind: KindBool, Name: "bool"}}
	Bytes    = Leaf{Base: BaseType{Kind: KindBytes, Name: "bytes"}}
	Time     = Leaf{Base: BaseType{Kind: KindTime, Name: "time"}}
	UUID     = Leaf{Base: BaseType{Kind: KindUUID, Name: "uuid"}}
	Variadic = Leaf{Base: BaseType{Kind: KindVariadic, Name: "..."}}
)

// Model returns a leaf annotation referring to a registered model by name.
func Model(name string) Leaf {
	return Leaf{Base: BaseType{Kind: KindModel, Name: name}}
}

// Union builds a union annotation over the given members.
func Union(members ...Annotation) Generic {
	return Generic{Origin: OriginUnion, Args: members}
}

// Optional builds a union of the given annotation and the none marker.
func Optional(inner Annotation) Generic {
	return Union(inner, None)
}

// ListOf builds a list annotation over the given element type.
func ListOf(elem Annotation) Generic {
	return Generic{Origin: OriginList, Args: []Annotation{elem}}
}

// SetOf builds a set annotation over the given element type.
func SetOf(elem Annotation) Generic {
	return Generic{Origin: OriginSet, Args: []Annotation{elem}}
}

// MapOf builds a dict annotation over the given key and value types.
func MapOf(key, value Annotation) Generic {
	return Generic{Origin: OriginDict, Args: []Annotation{key, value}}
}

// TupleOf builds a fixed-arity tuple annotation over the given member types.
func TupleOf(members ...Annotation) Generic {
	return Generic{Origin: OriginTuple, Args: members}
}

// Annotated wraps an annotation with metadata payloads.
func Annotated(inner Annotation, metadata ...any) Wrapped {
	return Wrapped{Kind: WrapperAnnotated, Inner: inner, Metadata: metadata}
}

// Required marks an annotation as required within a partial structure.
func Required(inner Annotation) Wrapped {
	return Wrapped{Kind: WrapperRequired, Inner: inner}
}

// NotRequired marks an annotation as omissible within a structure.
func NotRequired(inner Annotation) Wrapped {
	return Wrapped{Kind: WrapperNotRequired, Inner: inner}
}
