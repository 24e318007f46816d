package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/h-mayorquin/nwb-lens/pkg/errors"
	"github.com/h-mayorquin/nwb-lens/pkg/extract"
	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

const sampleSnapshot = `{
  "file_info": {"nwb_version": "2.6.0", "size": 4096},
  "structure": {
    "name": "/",
    "type": "NWBFile",
    "kind": "group",
    "attributes": {"session_description": "test session", "zulu": 1, "alpha": 2},
    "children": [
      {
        "name": "acquisition",
        "kind": "group",
        "children": [
          {
            "name": "series",
            "type": "TimeSeries",
            "class": "pynwb.base.TimeSeries",
            "data_info": {"shape": [120000, 8], "dtype": "float64", "compression": "gzip"},
            "fields": {"unit": "volts", "rate": 30000.5}
          },
          {"name": "loop", "ref_path": "/"}
        ]
      }
    ]
  }
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.nwb.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestLoadFileInfo(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)

	f, err := New().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer f.Close()

	info := f.Info()
	if info.FormatVersion != "2.6.0" {
		t.Errorf("FormatVersion = %s, want 2.6.0", info.FormatVersion)
	}
	if info.FileSizeBytes != 4096 {
		t.Errorf("FileSizeBytes = %d, want 4096", info.FileSizeBytes)
	}
	if info.Path != path {
		t.Errorf("Path = %s, want %s", info.Path, path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadMalformedSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json"},
		{"no structure", `{"file_info": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSnapshot(t, tt.content)
			if _, err := New().Load(context.Background(), path); !errors.Is(err, errors.ErrCodeBadSnapshot) {
				t.Errorf("Load() error = %v, want BAD_SNAPSHOT", err)
			}
		})
	}
}

func TestLoadThenExtract(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)

	f, err := New().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer f.Close()

	tr, err := extract.Extract(f.Root(), extract.Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	root := tr.Root()
	if root.TypeName != "NWBFile" {
		t.Errorf("root TypeName = %s, want NWBFile", root.TypeName)
	}
	// Attribute order follows the document, not alphabetical order.
	wantKeys := []string{"session_description", "zulu", "alpha"}
	for i, k := range root.Attributes.Keys() {
		if k != wantKeys[i] {
			t.Errorf("attribute[%d] = %s, want %s", i, k, wantKeys[i])
		}
	}

	series, ok := tr.Lookup("/acquisition/series")
	if !ok {
		t.Fatal("Lookup(/acquisition/series) missed")
	}
	if series.Kind != tree.KindDataset {
		t.Errorf("series Kind = %s, want %s", series.Kind, tree.KindDataset)
	}
	data, ok := series.Fields.Get("data")
	if !ok || data.Data == nil {
		t.Fatalf("series data field = %v, want data descriptor", data)
	}
	if data.Data.Shape[0] != 120000 || data.Data.ElementType != "float64" {
		t.Errorf("data descriptor = %+v, want shape [120000 8] float64", data.Data)
	}
	if data.Data.Compression != "gzip" {
		t.Errorf("Compression = %s, want gzip", data.Data.Compression)
	}
	unit, _ := series.Fields.Get("unit")
	if unit.Scalar != "volts" {
		t.Errorf("unit = %v, want volts", unit.Scalar)
	}
	rate, _ := series.Fields.Get("rate")
	if rate.Scalar != float64(30000.5) {
		t.Errorf("rate = %v, want 30000.5", rate.Scalar)
	}

	// The ref_path entry resolves to the root object, which is on the
	// ancestor chain during extraction and therefore becomes a cycle.
	loop, ok := tr.Lookup("/acquisition/loop")
	if !ok {
		t.Fatal("Lookup(/acquisition/loop) missed")
	}
	if loop.Kind != tree.KindCycleReference {
		t.Errorf("loop Kind = %s, want %s", loop.Kind, tree.KindCycleReference)
	}
	if loop.Target != "/" {
		t.Errorf("loop Target = %s, want /", loop.Target)
	}
}

func TestExternalLinkResolution(t *testing.T) {
	dir := t.TempDir()
	linked := filepath.Join(dir, "other.nwb")
	if err := os.WriteFile(linked, []byte("x"), 0o644); err != nil {
		t.Fatalf("write linked file: %v", err)
	}

	content := `{
	  "structure": {
	    "name": "/",
	    "kind": "group",
	    "attributes": {
	      "good_link": {"kind": "link", "target_file": "other.nwb", "target_path": "/data"},
	      "bad_link": {"kind": "link", "target_file": "missing.nwb", "target_path": "/data"}
	    }
	  }
	}`
	path := filepath.Join(dir, "session.nwb.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	f, err := New().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer f.Close()

	tr, err := extract.Extract(f.Root(), extract.Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	root := tr.Root()
	good, _ := root.Attributes.Get("good_link")
	if good.Unresolved != "" || good.Scalar == nil {
		t.Errorf("good_link = %v, want resolved link description", good)
	}
	// A dangling external target becomes an unresolved placeholder and
	// must not fail the extraction.
	bad, _ := root.Attributes.Get("bad_link")
	if bad.Unresolved == "" {
		t.Errorf("bad_link = %v, want unresolved placeholder", bad)
	}
}

func TestCloseDropsGraph(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)

	f, err := New().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if f.Root() != nil {
		t.Error("Root() should be nil after Close")
	}
}
