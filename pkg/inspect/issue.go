// Package inspect integrates external validator output with structure
// trees.
//
// The validator itself is a black box: an external program (by default
// nwbinspector) that examines a file and emits a JSON report of
// findings. This package runs it, maps its importance levels onto the
// tool's severity scale, and merges the findings onto an existing tree
// as an immutable overlay.
package inspect

import (
	"time"

	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// IssueRecord is a single validation finding, immutable once received.
type IssueRecord struct {
	Path     string        `json:"path"`
	Severity tree.Severity `json:"severity"`
	Message  string        `json:"message"`
	CheckID  string        `json:"check_id"`
}

// Report is the parsed output of one validator run.
type Report struct {
	Issues      []IssueRecord `json:"issues"`
	Validator   string        `json:"validator"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// importanceSeverity maps nwbinspector importance names onto the
// ordered severity scale. Unknown names fall back to Info so that new
// validator categories degrade visibly instead of disappearing.
var importanceSeverity = map[string]tree.Severity{
	"ERROR":                    tree.SeverityCritical,
	"PYNWB_VALIDATION":         tree.SeverityCritical,
	"CRITICAL":                 tree.SeverityCritical,
	"BEST_PRACTICE_VIOLATION":  tree.SeverityWarning,
	"BEST_PRACTICE_SUGGESTION": tree.SeverityInfo,
}

// SeverityForImportance maps a validator importance name to a severity.
func SeverityForImportance(name string) tree.Severity {
	if s, ok := importanceSeverity[name]; ok {
		return s
	}
	return tree.SeverityInfo
}
