package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/h-mayorquin/nwb-lens/pkg/errors"
	"github.com/h-mayorquin/nwb-lens/pkg/inspect"
	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// severityFill maps aggregate severities to Graphviz fill colors.
var severityFill = map[tree.Severity]string{
	tree.SeverityInfo:     "lightblue",
	tree.SeverityWarning:  "gold",
	tree.SeverityCritical: "lightcoral",
}

// ToDOT converts a tree to Graphviz DOT format. Nodes carrying overlay
// findings are filled according to their aggregate severity, so a
// branch with a buried problem stays visible when collapsed at print
// scale. The result renders with [RenderSVG]. overlay may be nil.
func ToDOT(t *tree.Tree, overlay *inspect.Overlay) string {
	var buf bytes.Buffer
	buf.WriteString("digraph structure {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	t.Walk(func(n *tree.Node, _ int) error {
		attrs := []string{fmt.Sprintf("label=%q", dotLabel(n))}
		if fill, ok := severityFill[overlay.AggregateSeverity(n.Path)]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%s", fill))
		}
		if n.Kind == tree.KindCycleReference {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Path, strings.Join(attrs, ", "))
		return nil
	})

	buf.WriteString("\n")
	t.Walk(func(n *tree.Node, _ int) error {
		for _, child := range n.Children {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Path, child)
		}
		if n.Kind == tree.KindCycleReference && n.Target != "" {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, constraint=false];\n", n.Path, n.Target)
		}
		return nil
	})

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n *tree.Node) string {
	if n.TypeName == "" {
		return n.Name
	}
	return n.Name + "\n" + n.TypeName
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializeFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializeFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializeFailed, err, "render SVG")
	}
	return buf.Bytes(), nil
}
