package tree

// Kind identifies the structural role of a node.
type Kind string

const (
	// KindGroup is a group-like container holding named sub-objects.
	KindGroup Kind = "group"
	// KindDataset is a typed data entity whose bulk contents are never loaded.
	KindDataset Kind = "dataset"
	// KindScalar is a leaf holding only scalar metadata.
	KindScalar Kind = "scalar"
	// KindCollection is a loader-synthesized grouping of sibling objects
	// (e.g. the acquisition or processing sections of a recording file).
	KindCollection Kind = "collection"
	// KindCycleReference marks the point where the source graph referred
	// back to an ancestor. The node's Target holds the ancestor's path.
	KindCycleReference Kind = "cycle-reference"
	// KindUnreadable marks an object that could not be interpreted at all.
	KindUnreadable Kind = "unreadable"
)

// Node is one entry in the structure tree. Nodes are immutable after the
// tree is built; validation severities live in a separate overlay so that
// concurrent readers never observe partial updates.
type Node struct {
	// Path is the normalized slash-separated location, unique per tree.
	Path string `json:"path"`
	// Name is the last path segment.
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// TypeName is the declared neurodata type, ClassName the concrete
	// implementation type reported by the loader.
	TypeName  string `json:"type"`
	ClassName string `json:"class"`

	// Attributes and Fields preserve the source's reporting order.
	// Field values may reference child node paths via RefValue.
	Attributes *Values `json:"attributes,omitempty"`
	Fields     *Values `json:"fields,omitempty"`

	// Children lists child node paths in discovery order.
	Children []string `json:"children,omitempty"`

	// Target is the referenced ancestor path for cycle-reference nodes.
	Target string `json:"target,omitempty"`
}

// DisplayName returns the label shown on navigation surfaces:
// "name (Type)" when the type adds information, otherwise the name.
func (n *Node) DisplayName() string {
	if n.TypeName != "" && n.TypeName != n.Name {
		return n.Name + " (" + n.TypeName + ")"
	}
	return n.Name
}

// HasChildren reports whether the node has any children.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// JoinPath appends a child name to a parent path. The name is taken
// verbatim: names containing separators produce the path the validator
// would report for them, which keeps issue paths matchable.
func JoinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
