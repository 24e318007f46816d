package inspect

import (
	"strings"

	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// Overlay is the result of merging one validator report onto a tree.
//
// It is a complete, immutable severity assignment: direct and aggregate
// severities for every affected node plus the orphaned issues whose
// paths no longer exist in the tree. Each merge produces a fresh
// overlay that replaces the previous one wholesale, so re-running the
// validator never accumulates stale findings, and readers can be handed
// an overlay pointer atomically without ever observing a partial merge.
type Overlay struct {
	severities map[string]tree.Severity
	aggregates map[string]tree.Severity
	issues     map[string][]IssueRecord

	// Orphans are issues whose paths were not found in the tree, kept
	// visible instead of silently discarded.
	Orphans []IssueRecord
}

// Severity returns the worst severity directly attached to the node.
func (o *Overlay) Severity(path string) tree.Severity {
	if o == nil {
		return tree.SeverityNone
	}
	return o.severities[path]
}

// AggregateSeverity returns the worst severity across the node and all
// of its descendants.
func (o *Overlay) AggregateSeverity(path string) tree.Severity {
	if o == nil {
		return tree.SeverityNone
	}
	return o.aggregates[path]
}

// Issues returns the issues directly attached to the node.
func (o *Overlay) Issues(path string) []IssueRecord {
	if o == nil {
		return nil
	}
	return o.issues[path]
}

// AllIssues returns every attached issue in tree walk order.
func (o *Overlay) AllIssues(t *tree.Tree) []IssueRecord {
	if o == nil {
		return nil
	}
	var out []IssueRecord
	_ = t.Walk(func(n *tree.Node, depth int) error {
		out = append(out, o.issues[n.Path]...)
		return nil
	})
	return out
}

// Total returns the number of attached issues plus orphans.
func (o *Overlay) Total() int {
	if o == nil {
		return 0
	}
	n := len(o.Orphans)
	for _, issues := range o.issues {
		n += len(issues)
	}
	return n
}

// Counts returns the number of attached issues per severity.
func (o *Overlay) Counts() map[tree.Severity]int {
	counts := make(map[tree.Severity]int)
	if o == nil {
		return counts
	}
	for _, issues := range o.issues {
		for _, issue := range issues {
			counts[issue.Severity]++
		}
	}
	return counts
}

// Merge attaches a validator report to a tree and returns the overlay.
//
// Each issue path is resolved through the tree's index; resolvable
// issues raise the node's direct severity to the worst attached level,
// unresolvable ones land in Orphans. Aggregate severities are then
// recomputed bottom-up so a collapsed ancestor can show a problem
// indicator for findings buried below it. The tree itself is never
// modified.
func Merge(t *tree.Tree, issues []IssueRecord) *Overlay {
	o := &Overlay{
		severities: make(map[string]tree.Severity),
		aggregates: make(map[string]tree.Severity),
		issues:     make(map[string][]IssueRecord),
	}

	for _, issue := range issues {
		path, ok := resolvePath(t, issue.Path)
		if !ok {
			o.Orphans = append(o.Orphans, issue)
			continue
		}
		o.issues[path] = append(o.issues[path], issue)
		o.severities[path] = o.severities[path].Max(issue.Severity)
	}

	o.aggregate(t, t.RootPath())
	return o
}

// aggregate computes the bottom-up severity roll-up for the subtree at
// path and returns its aggregate.
func (o *Overlay) aggregate(t *tree.Tree, path string) tree.Severity {
	agg := o.severities[path]
	n, ok := t.Lookup(path)
	if !ok {
		return agg
	}
	for _, child := range n.Children {
		agg = agg.Max(o.aggregate(t, child))
	}
	if agg > tree.SeverityNone {
		o.aggregates[path] = agg
	}
	return agg
}

// resolvePath finds the tree node a validator path refers to.
// Validator paths sometimes carry a /general prefix that the structure
// does not; try the exact path first, then the normalized variants.
func resolvePath(t *tree.Tree, path string) (string, bool) {
	if path == "" {
		path = "/"
	}
	if _, ok := t.Lookup(path); ok {
		return path, true
	}
	if trimmed, found := strings.CutPrefix(path, "/general"); found {
		if trimmed == "" {
			trimmed = "/"
		}
		if _, ok := t.Lookup(trimmed); ok {
			return trimmed, true
		}
	}
	if path != "/" {
		prefixed := "/general" + path
		if _, ok := t.Lookup(prefixed); ok {
			return prefixed, true
		}
	}
	return "", false
}
