package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// SchemaVersion is the serialization schema version written by MarshalTree.
// Readers accept documents with the same or older versions.
const SchemaVersion = 1

type treeDoc struct {
	SchemaVersion int     `json:"schema_version"`
	Root          string  `json:"root"`
	Nodes         []*Node `json:"nodes"`
}

// MarshalTree encodes a tree into its canonical byte form.
//
// The output is deterministic: nodes are emitted in depth-first discovery
// order and attribute/field maps keep insertion order, so equal trees
// always serialize to identical bytes.
func MarshalTree(t *Tree) ([]byte, error) {
	doc := treeDoc{
		SchemaVersion: SchemaVersion,
		Root:          t.root,
		Nodes:         make([]*Node, 0, len(t.index)),
	}
	emitted := make(map[string]bool, len(t.index))
	err := t.Walk(func(n *Node, depth int) error {
		doc.Nodes = append(doc.Nodes, n)
		emitted[n.Path] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Nodes unreachable through Children (none in practice) would make
	// the round trip lossy; emit them in sorted order so nothing is lost.
	if len(emitted) != len(t.index) {
		for _, p := range t.Paths() {
			if !emitted[p] {
				doc.Nodes = append(doc.Nodes, t.index[p])
			}
		}
	}
	return json.Marshal(doc)
}

// UnmarshalTree reconstructs a tree from its canonical byte form.
// The result satisfies the same invariants as a freshly extracted tree.
func UnmarshalTree(data []byte) (*Tree, error) {
	var doc treeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d (max %d)", doc.SchemaVersion, SchemaVersion)
	}
	b := NewBuilder()
	for _, n := range doc.Nodes {
		if err := b.Add(n); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Path, err)
		}
	}
	return b.Build(doc.Root)
}

// WriteTree encodes t and writes it to w with indentation for readability.
// Indentation is applied to the canonical bytes, so key order is preserved.
func WriteTree(t *Tree, w io.Writer) error {
	data, err := MarshalTree(t)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// ReadTreeFile loads a serialized tree from a file.
func ReadTreeFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalTree(data)
}
