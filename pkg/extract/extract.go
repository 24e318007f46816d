// Package extract walks a loader's object graph and converts it into a
// self-contained [tree.Tree] snapshot.
//
// Extraction is a one-shot synchronous pass. It resolves every deferred
// property exactly once, replaces array-like values with shape/type
// descriptors (the no-bulk-data rule), breaks back-references to
// ancestors with explicit cycle-reference nodes, and recovers from
// per-field failures with unresolved placeholders. The returned tree
// holds no references into the source graph, so the file can be closed
// immediately after Extract returns.
package extract

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// DefaultMaxStringLen caps scalar strings stored in the tree. Longer
// strings are truncated with an ellipsis; full text stays in the file.
const DefaultMaxStringLen = 120

// Options configures an extraction pass.
type Options struct {
	// Logger receives warnings about unresolved fields. Defaults to a
	// discard logger.
	Logger *log.Logger

	// MaxStringLen overrides DefaultMaxStringLen when positive.
	MaxStringLen int
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.MaxStringLen <= 0 {
		o.MaxStringLen = DefaultMaxStringLen
	}
}

// Extract walks the graph rooted at root and returns its tree snapshot.
//
// The walk is depth-first from path "/". A visited set keyed by source
// identity covers the current ancestor chain only: a child resolving to
// an object already on the chain becomes a cycle-reference node pointing
// at the ancestor's path, which bounds the walk by the number of
// distinct objects even for self-referential graphs.
//
// Extract fails only when no usable tree can be produced at all; any
// failure local to one field or sub-object is recorded in place and the
// walk continues.
func Extract(root Object, opts Options) (*tree.Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("extract: nil root object")
	}
	opts.setDefaults()

	s := &session{
		builder:   tree.NewBuilder(),
		ancestors: make(map[any]string),
		opts:      opts,
	}
	rootPath := s.visit(root, "/", "/")
	return s.builder.Build(rootPath)
}

// session binds the in-progress build to the live source graph.
// It exists only for the duration of one Extract call.
type session struct {
	builder   *tree.Builder
	ancestors map[any]string
	opts      Options
}

// visit extracts obj at the given path and returns the path actually
// used (paths are uniquified when sibling names collide).
func (s *session) visit(obj Object, path, name string) string {
	id := identity(obj)
	if ancestorPath, onChain := s.ancestors[id]; onChain {
		return s.addNode(&tree.Node{
			Path:      path,
			Name:      name,
			Kind:      tree.KindCycleReference,
			TypeName:  obj.TypeName(),
			ClassName: obj.ClassName(),
			Target:    ancestorPath,
		})
	}

	n := &tree.Node{
		Path:      path,
		Name:      name,
		Kind:      kindOf(obj.Variant()),
		TypeName:  obj.TypeName(),
		ClassName: obj.ClassName(),
	}
	path = s.addNode(n)

	s.ancestors[id] = path
	defer delete(s.ancestors, id)

	if attributed, ok := obj.(Attributed); ok {
		attrs := tree.NewValues()
		for _, a := range attributed.Attrs() {
			attrs.Set(a.Name, s.resolveValue(path, a.Name, a.Value))
		}
		if attrs.Len() > 0 {
			n.Attributes = attrs
		}
	}

	if fielded, ok := obj.(Fielded); ok {
		fields := tree.NewValues()
		for _, f := range fielded.Fields() {
			if child, ok := f.Value.(Object); ok {
				childPath := s.visit(child, tree.JoinPath(path, f.Name), f.Name)
				n.Children = append(n.Children, childPath)
				fields.Set(f.Name, tree.RefValue(childPath))
				continue
			}
			fields.Set(f.Name, s.resolveValue(path, f.Name, f.Value))
		}
		if fields.Len() > 0 {
			n.Fields = fields
		}
	}

	if container, ok := obj.(Container); ok {
		for _, child := range container.Children() {
			childName := child.Name()
			childPath := s.visit(child, tree.JoinPath(path, childName), childName)
			n.Children = append(n.Children, childPath)
		}
	}

	return path
}

// addNode registers a node, uniquifying the path if siblings share a
// name. Returns the path the node was stored under.
func (s *session) addNode(n *tree.Node) string {
	base := n.Path
	for i := 2; ; i++ {
		if err := s.builder.Add(n); err == nil {
			return n.Path
		}
		n.Path = fmt.Sprintf("%s#%d", base, i)
	}
}

// resolveValue converts a raw attribute/field value into a tree.Value,
// forcing deferred properties exactly once and applying the
// no-bulk-data rule to array-likes.
func (s *session) resolveValue(path, name string, raw any) tree.Value {
	if deferred, ok := raw.(Deferred); ok {
		resolved, err := deferred.Resolve()
		if err != nil {
			s.opts.Logger.Warn("unresolved property",
				"path", path, "name", name, "reason", err)
			return tree.UnresolvedValue(err.Error())
		}
		raw = resolved
	}

	if arr, ok := raw.(Array); ok {
		info := tree.DataInfo{
			Shape:       arr.Shape(),
			ElementType: arr.ElementType(),
		}
		if st, ok := raw.(Storage); ok {
			info.Chunks = st.Chunks()
			info.Compression = st.Compression()
			info.UncompressedSize, info.CompressedSize = st.StorageSizes()
		}
		if info.Shape == nil {
			info.Shape = []int64{}
		}
		return tree.DataValue(info)
	}

	return tree.ScalarValue(s.normalize(raw))
}

// normalize maps raw scalars to the small set of types the tree stores.
// Non-finite floats become nil (they are not representable in JSON),
// long strings are truncated, and aggregate values are summarized.
func (s *session) normalize(raw any) any {
	switch v := raw.(type) {
	case nil, bool, string, int64, float64:
		if str, ok := v.(string); ok && len(str) > s.opts.MaxStringLen {
			return str[:s.opts.MaxStringLen] + "…"
		}
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return nil
		}
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return s.normalize(float64(v))
	case []any:
		return fmt.Sprintf("list[%d]", len(v))
	case map[string]any:
		return fmt.Sprintf("dict[%d keys]", len(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func kindOf(v Variant) tree.Kind {
	switch v {
	case VariantGroup:
		return tree.KindGroup
	case VariantDataset:
		return tree.KindDataset
	case VariantScalar:
		return tree.KindScalar
	case VariantCollection:
		return tree.KindCollection
	default:
		return tree.KindUnreadable
	}
}
