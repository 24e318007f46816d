package extract

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// fakeObject is a minimal in-memory source object for extraction tests.
type fakeObject struct {
	name     string
	typeName string
	variant  Variant
	attrs    []Attr
	fields   []Field
	children []Object
}

func (o *fakeObject) Name() string      { return o.name }
func (o *fakeObject) TypeName() string  { return o.typeName }
func (o *fakeObject) ClassName() string { return o.typeName }
func (o *fakeObject) Variant() Variant  { return o.variant }
func (o *fakeObject) Attrs() []Attr     { return o.attrs }
func (o *fakeObject) Fields() []Field   { return o.fields }

func (o *fakeObject) Children() []Object { return o.children }

func group(name string, children ...Object) *fakeObject {
	return &fakeObject{name: name, typeName: "Group", variant: VariantGroup, children: children}
}

// fakeArray reports shape and element type only.
type fakeArray struct {
	shape []int64
	elem  string
}

func (a *fakeArray) Shape() []int64      { return a.shape }
func (a *fakeArray) ElementType() string { return a.elem }

// fakeDeferred resolves lazily, counting invocations.
type fakeDeferred struct {
	value any
	err   error
	calls int
}

func (d *fakeDeferred) Resolve() (any, error) {
	d.calls++
	return d.value, d.err
}

func TestExtractBasicHierarchy(t *testing.T) {
	root := group("/",
		group("acquisition",
			&fakeObject{name: "series", typeName: "TimeSeries", variant: VariantDataset,
				attrs: []Attr{{Name: "unit", Value: "volts"}}}),
		group("processing"))

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if tr.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tr.Len())
	}
	n, ok := tr.Lookup("/acquisition/series")
	if !ok {
		t.Fatal("Lookup(/acquisition/series) missed")
	}
	if n.Kind != tree.KindDataset {
		t.Errorf("Kind = %s, want %s", n.Kind, tree.KindDataset)
	}
	unit, ok := n.Attributes.Get("unit")
	if !ok || unit.Scalar != "volts" {
		t.Errorf("attribute unit = %v, want volts", unit)
	}
}

func TestExtractPreservesChildOrder(t *testing.T) {
	// Deliberately non-alphabetical: the tree must keep source order.
	root := group("/",
		group("zebra"), group("alpha"), group("middle"))

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	want := []string{"/zebra", "/alpha", "/middle"}
	got := tr.Root().Children
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Children[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExtractArrayNeverReadsData(t *testing.T) {
	root := group("/",
		&fakeObject{name: "data", typeName: "Dataset", variant: VariantDataset,
			fields: []Field{{Name: "data", Value: &fakeArray{shape: []int64{10000, 64}, elem: "float32"}}}})

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	n, _ := tr.Lookup("/data")
	v, ok := n.Fields.Get("data")
	if !ok {
		t.Fatal("field data missing")
	}
	if v.Data == nil {
		t.Fatalf("field data = %v, want data descriptor", v)
	}
	if v.Data.Shape[0] != 10000 || v.Data.Shape[1] != 64 {
		t.Errorf("Shape = %v, want [10000 64]", v.Data.Shape)
	}
	if v.Data.ElementType != "float32" {
		t.Errorf("ElementType = %s, want float32", v.Data.ElementType)
	}
}

func TestExtractDeferredResolvedOnce(t *testing.T) {
	d := &fakeDeferred{value: "resolved"}
	root := group("/",
		&fakeObject{name: "obj", typeName: "Scalar", variant: VariantScalar,
			attrs: []Attr{{Name: "lazy", Value: d}}})

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if d.calls != 1 {
		t.Errorf("Resolve() called %d times, want 1", d.calls)
	}
	n, _ := tr.Lookup("/obj")
	v, _ := n.Attributes.Get("lazy")
	if v.Scalar != "resolved" {
		t.Errorf("lazy = %v, want resolved", v.Scalar)
	}
}

func TestExtractUnresolvedFieldContinues(t *testing.T) {
	root := group("/",
		&fakeObject{name: "obj", typeName: "Dataset", variant: VariantDataset,
			fields: []Field{
				{Name: "broken", Value: &fakeDeferred{err: errors.New("backend gone")}},
				{Name: "fine", Value: int64(7)},
			}})

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	n, _ := tr.Lookup("/obj")
	broken, _ := n.Fields.Get("broken")
	if broken.Unresolved == "" {
		t.Errorf("broken = %v, want unresolved placeholder", broken)
	}
	fine, _ := n.Fields.Get("fine")
	if fine.Scalar != int64(7) {
		t.Errorf("fine = %v, want 7; sibling extraction must continue", fine.Scalar)
	}
}

func TestExtractCycleAtDepth(t *testing.T) {
	// A chain a -> b -> c where c refers back to a.
	a := group("a")
	b := group("b")
	c := group("c")
	a.children = []Object{b}
	b.children = []Object{c}
	c.children = []Object{a}
	root := group("/", a)

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	cycles := 0
	_ = tr.Walk(func(n *tree.Node, depth int) error {
		if n.Kind == tree.KindCycleReference {
			cycles++
			if n.Target != "/a" {
				t.Errorf("cycle Target = %s, want /a", n.Target)
			}
		}
		return nil
	})
	if cycles != 1 {
		t.Errorf("found %d cycle-reference nodes, want 1", cycles)
	}
}

func TestExtractSharedObjectIsNotCycle(t *testing.T) {
	// The same object under two parents is a diamond, not a cycle: it
	// must be extracted twice, once per occurrence.
	shared := &fakeObject{name: "shared", typeName: "Scalar", variant: VariantScalar}
	root := group("/", group("left", shared), group("right", shared))

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	for _, path := range []string{"/left/shared", "/right/shared"} {
		n, ok := tr.Lookup(path)
		if !ok {
			t.Fatalf("Lookup(%s) missed", path)
		}
		if n.Kind == tree.KindCycleReference {
			t.Errorf("%s extracted as cycle-reference, want %s", path, tree.KindScalar)
		}
	}
}

func TestExtractSiblingNameCollision(t *testing.T) {
	root := group("/",
		&fakeObject{name: "dup", typeName: "Scalar", variant: VariantScalar},
		&fakeObject{name: "dup", typeName: "Scalar", variant: VariantScalar})

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if tr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tr.Len())
	}
	if _, ok := tr.Lookup("/dup"); !ok {
		t.Error("first sibling lost its path")
	}
	if _, ok := tr.Lookup("/dup#2"); !ok {
		t.Error("second sibling not uniquified to /dup#2")
	}
}

func TestExtractObjectFieldBecomesChild(t *testing.T) {
	inner := &fakeObject{name: "electrode", typeName: "Electrode", variant: VariantScalar}
	root := group("/",
		&fakeObject{name: "series", typeName: "Series", variant: VariantDataset,
			fields: []Field{{Name: "electrode", Value: Object(inner)}}})

	tr, err := Extract(root, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	n, _ := tr.Lookup("/series")
	ref, ok := n.Fields.Get("electrode")
	if !ok || ref.Ref != "/series/electrode" {
		t.Errorf("field electrode = %v, want ref to /series/electrode", ref)
	}
	if _, ok := tr.Lookup("/series/electrode"); !ok {
		t.Error("object-valued field was not extracted as a child")
	}
}

func TestNormalizeScalars(t *testing.T) {
	s := &session{opts: Options{MaxStringLen: 10}}

	long := strings.Repeat("x", 25)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int", int(3), int64(3)},
		{"uint64", uint64(9), int64(9)},
		{"float32", float32(1.5), float64(1.5)},
		{"long string", long, long[:10] + "…"},
		{"list", []any{1, 2, 3}, "list[3]"},
		{"dict", map[string]any{"a": 1}, "dict[1 keys]"},
		{"struct fallback", struct{ X int }{4}, fmt.Sprintf("%v", struct{ X int }{4})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.normalize(tt.in); got != tt.want {
				t.Errorf("normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
