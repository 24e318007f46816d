package extract

// Variant tags the structural role a source object reports for itself.
// The extractor dispatches on this tag instead of probing for attributes,
// so loaders decide once how each object should be interpreted.
type Variant int

const (
	// VariantGroup is a container with named sub-objects.
	VariantGroup Variant = iota
	// VariantDataset is a typed data entity backed by an array.
	VariantDataset
	// VariantScalar is a leaf carrying only scalar metadata.
	VariantScalar
	// VariantCollection is a loader-synthesized grouping of siblings.
	VariantCollection
	// VariantUnknown marks objects the loader could not interpret.
	// They are recorded as unreadable placeholder nodes.
	VariantUnknown
)

// Object is the minimal capability contract a loader must satisfy for
// every object it exposes. The extractor depends only on this contract,
// never on the loader's concrete types.
type Object interface {
	Name() string
	TypeName() string
	ClassName() string
	Variant() Variant
}

// Container is implemented by objects with named sub-objects.
// Children returns them in the source's reporting order; that order is
// user-facing and preserved verbatim in the tree.
type Container interface {
	Object
	Children() []Object
}

// Attr is a single named attribute value in reporting order.
// The value may be a scalar, a [Deferred], or an [Array].
type Attr struct {
	Name  string
	Value any
}

// Attributed is implemented by objects carrying attributes.
type Attributed interface {
	Attrs() []Attr
}

// Field is a single named field value in reporting order.
// Besides the value types allowed for attributes, a field value may be
// an [Object]; such fields are extracted as children and stored as path
// references.
type Field struct {
	Name  string
	Value any
}

// Fielded is implemented by objects carrying fields.
type Fielded interface {
	Fields() []Field
}

// Array describes an array-like value. The extractor never asks for the
// contents: only shape and element type cross the contract boundary.
type Array interface {
	Shape() []int64
	ElementType() string
}

// Storage optionally extends Array with storage-layer details.
type Storage interface {
	Array
	Chunks() []int64
	Compression() string
	// StorageSizes returns the uncompressed and compressed byte sizes,
	// or zeros when unknown.
	StorageSizes() (uncompressed, compressed int64)
}

// Deferred is a lazily-computed property. The extractor resolves it
// exactly once during the pass; a failed resolution becomes an
// unresolved placeholder instead of aborting extraction.
type Deferred interface {
	Resolve() (any, error)
}

// Identifiable lets loaders supply a stable identity for cycle
// detection. Objects without it are identified by interface value,
// which works for pointer-based implementations.
type Identifiable interface {
	Identity() any
}

func identity(obj Object) any {
	if id, ok := obj.(Identifiable); ok {
		return id.Identity()
	}
	return obj
}
