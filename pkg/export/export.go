// Package export renders a tree, and optionally its inspection
// overlay, into the stable JSON document and Graphviz formats.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/h-mayorquin/nwb-lens/pkg/errors"
	"github.com/h-mayorquin/nwb-lens/pkg/inspect"
	"github.com/h-mayorquin/nwb-lens/pkg/source"
	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// SchemaVersion identifies the export document layout.
const SchemaVersion = 1

// NodeEntry is one object in the exported structure map.
type NodeEntry struct {
	Name              string       `json:"name"`
	Kind              string       `json:"kind"`
	TypeName          string       `json:"type,omitempty"`
	ClassName         string       `json:"class,omitempty"`
	Attributes        *tree.Values `json:"attributes,omitempty"`
	Fields            *tree.Values `json:"fields,omitempty"`
	Children          []string     `json:"children,omitempty"`
	Severity          string       `json:"severity"`
	AggregateSeverity string       `json:"aggregate_severity"`
}

// Document is the complete export payload. Rendering the same tree and
// overlay always produces byte-identical output except for the
// timestamp, which callers can pin for comparison.
type Document struct {
	SchemaVersion    int                   `json:"schema_version"`
	FileInfo         source.FileInfo       `json:"file_info"`
	Structure        structureMap          `json:"structure"`
	InspectorResults []inspect.IssueRecord `json:"inspector_results"`
	OrphanIssues     []inspect.IssueRecord `json:"orphan_issues"`
	ExportTimestamp  string                `json:"export_timestamp"`
}

// structureMap serializes path->entry with paths in sorted order so the
// document is deterministic. encoding/json sorts map keys on its own,
// but an explicit type keeps the contract visible and survives a swap
// to another encoder.
type structureMap map[string]*NodeEntry

func (m structureMap) MarshalJSON() ([]byte, error) {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		entry, err := json.Marshal(m[p])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", p, err)
		}
		buf.Write(entry)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Render builds the export document. overlay may be nil, in which case
// every severity field reads NONE and the issue lists are empty rather
// than null.
func Render(t *tree.Tree, overlay *inspect.Overlay, info source.FileInfo) (*Document, error) {
	if t == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil tree")
	}

	structure := make(structureMap, t.Len())
	err := t.Walk(func(n *tree.Node, _ int) error {
		structure[n.Path] = &NodeEntry{
			Name:              n.Name,
			Kind:              string(n.Kind),
			TypeName:          n.TypeName,
			ClassName:         n.ClassName,
			Attributes:        n.Attributes,
			Fields:            n.Fields,
			Children:          n.Children,
			Severity:          overlay.Severity(n.Path).String(),
			AggregateSeverity: overlay.AggregateSeverity(n.Path).String(),
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializeFailed, err, "walk tree")
	}

	doc := &Document{
		SchemaVersion:    SchemaVersion,
		FileInfo:         info,
		Structure:        structure,
		InspectorResults: []inspect.IssueRecord{},
		OrphanIssues:     []inspect.IssueRecord{},
		ExportTimestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if overlay != nil {
		if issues := overlay.AllIssues(t); len(issues) > 0 {
			doc.InspectorResults = issues
		}
		if len(overlay.Orphans) > 0 {
			doc.OrphanIssues = overlay.Orphans
		}
	}
	return doc, nil
}

// Marshal encodes the document with stable indentation.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializeFailed, err, "encode export document")
	}
	return data, nil
}

// WriteJSON writes the document to w.
func WriteJSON(w io.Writer, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeSerializeFailed, err, "write export document")
	}
	return nil
}

// ExportJSON writes the document to a file.
func ExportJSON(path string, doc *Document) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeSerializeFailed, err, "write %s", path)
	}
	return nil
}
