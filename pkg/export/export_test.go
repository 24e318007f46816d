package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/h-mayorquin/nwb-lens/pkg/inspect"
	"github.com/h-mayorquin/nwb-lens/pkg/source"
	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

func buildTree(t *testing.T) *tree.Tree {
	t.Helper()

	b := tree.NewBuilder()
	nodes := []*tree.Node{
		{Path: "/", Name: "/", Kind: tree.KindGroup, TypeName: "NWBFile",
			Children: []string{"/acquisition"}},
		{Path: "/acquisition", Name: "acquisition", Kind: tree.KindGroup,
			Children: []string{"/acquisition/series"}},
		{Path: "/acquisition/series", Name: "series", Kind: tree.KindDataset, TypeName: "TimeSeries"},
	}
	for _, n := range nodes {
		if err := b.Add(n); err != nil {
			t.Fatalf("Add(%s) error: %v", n.Path, err)
		}
	}
	tr, err := b.Build("/")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return tr
}

func testInfo() source.FileInfo {
	return source.FileInfo{Path: "session.nwb", FormatVersion: "2.6.0", FileSizeBytes: 1024}
}

func TestRenderWithoutOverlay(t *testing.T) {
	doc, err := Render(buildTree(t), nil, testInfo())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if doc.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", doc.SchemaVersion, SchemaVersion)
	}
	if len(doc.Structure) != 3 {
		t.Errorf("len(Structure) = %d, want 3", len(doc.Structure))
	}
	for path, entry := range doc.Structure {
		if entry.Severity != "NONE" || entry.AggregateSeverity != "NONE" {
			t.Errorf("%s severity = %s/%s, want NONE/NONE", path, entry.Severity, entry.AggregateSeverity)
		}
	}
	// Issue lists are present and empty, never null.
	if doc.InspectorResults == nil || doc.OrphanIssues == nil {
		t.Error("issue lists must be empty slices, not nil")
	}

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if strings.Contains(string(data), `"inspector_results": null`) {
		t.Error("inspector_results serialized as null")
	}
}

func TestRenderWithOverlay(t *testing.T) {
	tr := buildTree(t)
	overlay := inspect.Merge(tr, []inspect.IssueRecord{
		{Path: "/acquisition/series", Severity: tree.SeverityCritical, Message: "missing unit"},
		{Path: "/nonexistent", Severity: tree.SeverityInfo, Message: "gone"},
	})

	doc, err := Render(tr, overlay, testInfo())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	series := doc.Structure["/acquisition/series"]
	if series.Severity != "CRITICAL" {
		t.Errorf("series Severity = %s, want CRITICAL", series.Severity)
	}
	root := doc.Structure["/"]
	if root.Severity != "NONE" || root.AggregateSeverity != "CRITICAL" {
		t.Errorf("root severity = %s/%s, want NONE/CRITICAL", root.Severity, root.AggregateSeverity)
	}
	if len(doc.InspectorResults) != 1 {
		t.Errorf("len(InspectorResults) = %d, want 1", len(doc.InspectorResults))
	}
	if len(doc.OrphanIssues) != 1 {
		t.Errorf("len(OrphanIssues) = %d, want 1", len(doc.OrphanIssues))
	}
}

func TestMarshalDeterministic(t *testing.T) {
	tr := buildTree(t)

	render := func() []byte {
		doc, err := Render(tr, nil, testInfo())
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		doc.ExportTimestamp = "2026-01-01T00:00:00Z"
		data, err := Marshal(doc)
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		return data
	}

	first := render()
	for i := 0; i < 5; i++ {
		if !bytes.Equal(first, render()) {
			t.Fatalf("Marshal() output changed on run %d", i)
		}
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc, err := Render(buildTree(t), nil, testInfo())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if back.FileInfo != doc.FileInfo {
		t.Errorf("FileInfo = %+v, want %+v", back.FileInfo, doc.FileInfo)
	}
	if len(back.Structure) != len(doc.Structure) {
		t.Errorf("len(Structure) = %d, want %d", len(back.Structure), len(doc.Structure))
	}
}

func TestToDOT(t *testing.T) {
	tr := buildTree(t)
	overlay := inspect.Merge(tr, []inspect.IssueRecord{
		{Path: "/acquisition/series", Severity: tree.SeverityWarning, Message: "m"},
	})

	dot := ToDOT(tr, overlay)
	for _, want := range []string{
		"digraph structure",
		`"/acquisition" -> "/acquisition/series"`,
		"fillcolor=gold",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
}

func TestToDOTNilOverlay(t *testing.T) {
	dot := ToDOT(buildTree(t), nil)
	if strings.Contains(dot, "fillcolor=gold") || strings.Contains(dot, "fillcolor=lightcoral") {
		t.Error("ToDOT() applied severity colors without an overlay")
	}
}
