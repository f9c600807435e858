package typemap

// Origin identifies the generic container kind of a parameterized annotation.
// The zero value means the annotation is not parameterized.
type Origin int

const (
	OriginNone Origin = iota
	OriginUnion

	// Concrete container origins.
	OriginList
	OriginSet
	OriginFrozenSet
	OriginDict
	OriginTuple
	OriginDeque
	OriginDefaultDict

	// Abstract container origins.
	OriginSequence
	OriginMutableSequence
	OriginAbstractSet
	OriginMutableSet
	OriginMapping
	OriginMutableMapping

	// Iteration protocol origins. These have no concrete container form.
	OriginCollection
	OriginContainer
	OriginIterable
	OriginIterator
	OriginGenerator
	OriginReversible
	OriginCoroutine
	OriginAwaitable
	OriginAsyncIterable
	OriginAsyncIterator
	OriginAsyncGenerator
)

var originNames = map[Origin]string{
	OriginNone:            "none",
	OriginUnion:           "union",
	OriginList:            "list",
	OriginSet:             "set",
	OriginFrozenSet:       "frozenset",
	OriginDict:            "dict",
	OriginTuple:           "tuple",
	OriginDeque:           "deque",
	OriginDefaultDict:     "defaultdict",
	OriginSequence:        "sequence",
	OriginMutableSequence: "mutablesequence",
	OriginAbstractSet:     "abstractset",
	OriginMutableSet:      "mutableset",
	OriginMapping:         "mapping",
	OriginMutableMapping:  "mutablemapping",
	OriginCollection:      "collection",
	OriginContainer:       "container",
	OriginIterable:        "iterable",
	OriginIterator:        "iterator",
	OriginGenerator:       "generator",
	OriginReversible:      "reversible",
	OriginCoroutine:       "coroutine",
	OriginAwaitable:       "awaitable",
	OriginAsyncIterable:   "asynciterable",
	OriginAsyncIterator:   "asynciterator",
	OriginAsyncGenerator:  "asyncgenerator",
}

// String returns the lowercase origin name.
func (o Origin) String() string {
	if name, ok := originNames[o]; ok {
		return name
	}
	return "unknown"
}

// runtimeContainers maps abstract origins to the concrete container used at
// runtime for values of that shape. Initialized once, never mutated.
var runtimeContainers = map[Origin]Origin{
	OriginSequence:        OriginList,
	OriginMutableSequence: OriginList,
	OriginAbstractSet:     OriginSet,
	OriginMutableSet:      OriginSet,
	OriginMapping:         OriginDict,
	OriginMutableMapping:  OriginDict,
}

// canonicalOrigins is the inverse direction: the canonical generic spelling for
// each concrete container. Entries absent here are their own canonical form.
var canonicalOrigins = map[Origin]Origin{
	OriginList: OriginSequence,
	OriginSet:  OriginAbstractSet,
	OriginDict: OriginMapping,
}

// RuntimeContainer resolves an origin to the concrete container kind backing it
// at runtime. Origins with no concrete substitute pass through unchanged.
func RuntimeContainer(o Origin) Origin {
	if concrete, ok := runtimeContainers[o]; ok {
		return concrete
	}
	return o
}

// CanonicalOrigin resolves a concrete container kind to its canonical generic
// form. Origins with no canonical substitute pass through unchanged.
func CanonicalOrigin(o Origin) Origin {
	if canonical, ok := canonicalOrigins[o]; ok {
		return canonical
	}
	return o
}

// IsMappingOrigin reports whether the origin denotes a mapping-like container.
func IsMappingOrigin(o Origin) bool {
	switch RuntimeContainer(o) {
	case OriginDict, OriginDefaultDict:
		return true
	default:
		return false
	}
}

// IsCollectionOrigin reports whether the origin denotes a single-argument
// collection container or iteration protocol.
func IsCollectionOrigin(o Origin) bool {
	switch RuntimeContainer(o) {
	case OriginList, OriginSet, OriginFrozenSet, OriginDeque,
		OriginCollection, OriginContainer, OriginIterable, OriginIterator,
		OriginGenerator, OriginReversible, OriginCoroutine, OriginAwaitable,
		OriginAsyncIterable, OriginAsyncIterator, OriginAsyncGenerator:
		return true
	default:
		return false
	}
}
