package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/h-mayorquin/nwb-lens/pkg/extract"
)

// object is the concrete source object decoded from a snapshot node.
type object struct {
	name      string
	typeName  string
	className string
	variant   extract.Variant
	attrs     []extract.Attr
	fields    []extract.Field
	children  []extract.Object
}

func (o *object) Name() string             { return o.name }
func (o *object) TypeName() string         { return o.typeName }
func (o *object) ClassName() string        { return o.className }
func (o *object) Variant() extract.Variant { return o.variant }
func (o *object) Attrs() []extract.Attr    { return o.attrs }
func (o *object) Fields() []extract.Field  { return o.fields }

func (o *object) Children() []extract.Object { return o.children }

var (
	_ extract.Container  = (*object)(nil)
	_ extract.Attributed = (*object)(nil)
	_ extract.Fielded    = (*object)(nil)
)

// array is the Storage implementation for snapshot data descriptors and
// inline arrays. Contents are never kept, only the descriptor.
type array struct {
	shape        []int64
	elementType  string
	chunks       []int64
	compression  string
	uncompressed int64
	compressed   int64
}

func (a *array) Shape() []int64      { return a.shape }
func (a *array) ElementType() string { return a.elementType }
func (a *array) Chunks() []int64     { return a.chunks }
func (a *array) Compression() string { return a.compression }
func (a *array) StorageSizes() (int64, int64) {
	return a.uncompressed, a.compressed
}

var _ extract.Storage = (*array)(nil)

// inlineArray summarizes a literal JSON array into a descriptor without
// retaining the elements.
func inlineArray(items []json.RawMessage) *array {
	a := &array{shape: []int64{int64(len(items))}, elementType: "unknown"}
	if len(items) == 0 {
		return a
	}
	var first any
	dec := json.NewDecoder(bytes.NewReader(items[0]))
	dec.UseNumber()
	if err := dec.Decode(&first); err != nil {
		return a
	}
	switch v := first.(type) {
	case json.Number:
		if _, err := v.Int64(); err == nil {
			a.elementType = "int64"
		} else {
			a.elementType = "float64"
		}
	case string:
		a.elementType = "str"
	case bool:
		a.elementType = "bool"
	}
	return a
}

// externalLink defers resolution of a cross-file link until extraction.
// Resolution succeeds with a short description when the target file is
// present next to the snapshot, and fails otherwise.
type externalLink struct {
	targetFile string
	targetPath string
	baseDir    string
}

func (l *externalLink) Resolve() (any, error) {
	if l.targetFile == "" {
		return nil, fmt.Errorf("link has no target file")
	}
	target := l.targetFile
	if !filepath.IsAbs(target) {
		target = filepath.Join(l.baseDir, target)
	}
	if _, err := os.Stat(target); err != nil {
		return nil, fmt.Errorf("external link target %s: %w", l.targetFile, err)
	}
	if l.targetPath != "" {
		return fmt.Sprintf("link: %s:%s", l.targetFile, l.targetPath), nil
	}
	return "link: " + l.targetFile, nil
}

var _ extract.Deferred = (*externalLink)(nil)
