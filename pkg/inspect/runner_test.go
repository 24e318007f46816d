package inspect

import (
	"testing"

	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

func TestParseReportMessageList(t *testing.T) {
	data := []byte(`[
		{"message": "missing unit", "importance": "BEST_PRACTICE_VIOLATION",
		 "check_function_name": "check_unit", "location": "/acquisition/series"},
		{"message": "broken type", "importance": "PYNWB_VALIDATION",
		 "check_function_name": "check_type", "location": ""}
	]`)

	report, err := ParseReport(data)
	if err != nil {
		t.Fatalf("ParseReport() error: %v", err)
	}
	if len(report.Issues) != 2 {
		t.Fatalf("len(Issues) = %d, want 2", len(report.Issues))
	}

	first := report.Issues[0]
	if first.Path != "/acquisition/series" {
		t.Errorf("Path = %s, want /acquisition/series", first.Path)
	}
	if first.Severity != tree.SeverityWarning {
		t.Errorf("Severity = %v, want WARNING", first.Severity)
	}
	if first.CheckID != "check_unit" {
		t.Errorf("CheckID = %s, want check_unit", first.CheckID)
	}

	// Empty locations attach to the file root.
	if report.Issues[1].Path != "/" {
		t.Errorf("empty location Path = %s, want /", report.Issues[1].Path)
	}
	if report.Issues[1].Severity != tree.SeverityCritical {
		t.Errorf("Severity = %v, want CRITICAL", report.Issues[1].Severity)
	}
}

func TestParseReportWrappedMessages(t *testing.T) {
	data := []byte(`{"messages": [
		{"message": "m", "importance": "CRITICAL", "location": "/x"}
	]}`)

	report, err := ParseReport(data)
	if err != nil {
		t.Fatalf("ParseReport() error: %v", err)
	}
	if len(report.Issues) != 1 || report.Issues[0].Path != "/x" {
		t.Errorf("Issues = %v, want one at /x", report.Issues)
	}
}

func TestParseReportOwnFormat(t *testing.T) {
	data := []byte(`{"issues": [
		{"path": "/subject", "severity": "WARNING", "message": "m", "check_id": "c"}
	]}`)

	report, err := ParseReport(data)
	if err != nil {
		t.Fatalf("ParseReport() error: %v", err)
	}
	if len(report.Issues) != 1 {
		t.Fatalf("len(Issues) = %d, want 1", len(report.Issues))
	}
	if report.Issues[0].Severity != tree.SeverityWarning {
		t.Errorf("Severity = %v, want WARNING", report.Issues[0].Severity)
	}
}

func TestParseReportEmpty(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("  "), []byte("[]")} {
		report, err := ParseReport(data)
		if err != nil {
			t.Fatalf("ParseReport(%q) error: %v", data, err)
		}
		if len(report.Issues) != 0 {
			t.Errorf("ParseReport(%q) produced %d issues", data, len(report.Issues))
		}
	}
}

func TestParseReportMalformed(t *testing.T) {
	if _, err := ParseReport([]byte("{not json")); err == nil {
		t.Error("ParseReport accepted malformed JSON")
	}
}
