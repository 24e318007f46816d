// Package tree provides the self-contained structure model extracted from
// hierarchical scientific data files.
//
// A Tree is an immutable snapshot: a root node plus a path index covering
// every node. It has no dependency on the loader or file handle it was
// extracted from, survives after both are closed, and supports O(1) path
// lookup plus deterministic serialization.
//
// Trees are built once through a Builder (normally by the extract package)
// and never structurally mutated afterwards. Validation severities are not
// part of the tree; they live in overlays published by the inspect package.
package tree

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyPath is returned by [Builder.Add] when a node has no path.
	ErrEmptyPath = errors.New("node path must not be empty")

	// ErrDuplicatePath is returned by [Builder.Add] when a node with the
	// same path was already added. Paths are the tree's primary key.
	ErrDuplicatePath = errors.New("duplicate node path")

	// ErrUnknownRoot is returned by [Builder.Build] when the root path
	// was never added.
	ErrUnknownRoot = errors.New("unknown root path")

	// ErrDanglingReference is returned by [Tree.Validate] when a child or
	// field reference points at a path missing from the index.
	ErrDanglingReference = errors.New("dangling node reference")

	// ErrNotTree is returned by [Tree.Validate] when following children
	// revisits a node, meaning extraction failed to break a cycle.
	ErrNotTree = errors.New("child references form a cycle")
)

// Tree is the immutable structure snapshot: a root node and a path index
// with exactly one entry per distinct path.
type Tree struct {
	root  string
	index map[string]*Node
}

// Builder accumulates nodes for a tree under construction.
// It is used during extraction and by the deserializer.
type Builder struct {
	index map[string]*Node
	order []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]*Node)}
}

// Add registers a node under its path.
// Returns ErrEmptyPath or ErrDuplicatePath on invalid input.
func (b *Builder) Add(n *Node) error {
	if n.Path == "" {
		return ErrEmptyPath
	}
	if _, exists := b.index[n.Path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, n.Path)
	}
	b.index[n.Path] = n
	b.order = append(b.order, n.Path)
	return nil
}

// Build finalizes the tree with the given root path and validates it.
// The builder must not be reused afterwards.
func (b *Builder) Build(root string) (*Tree, error) {
	if _, ok := b.index[root]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoot, root)
	}
	t := &Tree{root: root, index: b.index}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.index[t.root] }

// RootPath returns the root node's path.
func (t *Tree) RootPath() string { return t.root }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.index) }

// Lookup returns the node at path, or false if no such node exists.
func (t *Tree) Lookup(path string) (*Node, bool) {
	n, ok := t.index[path]
	return n, ok
}

// Paths returns all node paths in sorted order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.index))
	for p := range t.index {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Walk visits nodes depth-first in child discovery order, starting at the
// root. The walk follows Children only; cycle-reference targets are not
// re-entered. Returning a non-nil error from fn stops the walk.
func (t *Tree) Walk(fn func(n *Node, depth int) error) error {
	return t.walk(t.root, 0, fn)
}

func (t *Tree) walk(path string, depth int, fn func(n *Node, depth int) error) error {
	n, ok := t.index[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDanglingReference, path)
	}
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := t.walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the tree's structural invariants:
//
//   - every path referenced by Children, field refs, or cycle targets
//     exists in the index
//   - following Children from the root never revisits a node
//
// A freshly built or deserialized tree always passes; Validate exists so
// corrupted inputs are rejected at the boundary instead of failing later.
func (t *Tree) Validate() error {
	for path, n := range t.index {
		if n.Path != path {
			return fmt.Errorf("index entry %s holds node with path %s", path, n.Path)
		}
		for _, child := range n.Children {
			if _, ok := t.index[child]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrDanglingReference, path, child)
			}
		}
		if n.Target != "" {
			if _, ok := t.index[n.Target]; !ok {
				return fmt.Errorf("%w: %s -> target %s", ErrDanglingReference, path, n.Target)
			}
		}
		for _, key := range n.Fields.Keys() {
			v, _ := n.Fields.Get(key)
			if v.Ref == "" {
				continue
			}
			if _, ok := t.index[v.Ref]; !ok {
				return fmt.Errorf("%w: %s field %q -> %s", ErrDanglingReference, path, key, v.Ref)
			}
		}
	}

	seen := make(map[string]bool, len(t.index))
	if err := t.checkAcyclic(t.root, seen); err != nil {
		return err
	}
	return nil
}

func (t *Tree) checkAcyclic(path string, seen map[string]bool) error {
	if seen[path] {
		return fmt.Errorf("%w: %s", ErrNotTree, path)
	}
	seen[path] = true
	for _, child := range t.index[path].Children {
		if err := t.checkAcyclic(child, seen); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two trees are node-for-node identical.
// It compares the canonical serialized forms, which are deterministic.
func Equal(a, b *Tree) bool {
	da, errA := MarshalTree(a)
	db, errB := MarshalTree(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(da) == string(db)
}
