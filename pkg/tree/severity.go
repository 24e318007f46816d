package tree

import (
	"encoding/json"
	"fmt"
)

// Severity is an ordered validation outcome level attached to nodes.
// Higher values are worse: None < Info < Warning < Critical.
type Severity int

const (
	// SeverityNone means no validation findings.
	SeverityNone Severity = iota
	// SeverityInfo marks informational findings (best-practice suggestions).
	SeverityInfo
	// SeverityWarning marks findings that should be addressed.
	SeverityWarning
	// SeverityCritical marks findings that indicate real problems with the file.
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityNone:     "NONE",
	SeverityInfo:     "INFO",
	SeverityWarning:  "WARNING",
	SeverityCritical: "CRITICAL",
}

var severityValues = map[string]Severity{
	"NONE":     SeverityNone,
	"INFO":     SeverityInfo,
	"WARNING":  SeverityWarning,
	"CRITICAL": SeverityCritical,
}

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity converts a canonical name into a Severity.
// Unknown names return SeverityNone and an error.
func ParseSeverity(name string) (Severity, error) {
	if s, ok := severityValues[name]; ok {
		return s, nil
	}
	return SeverityNone, fmt.Errorf("unknown severity %q", name)
}

// Max returns the worse of two severities.
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// MarshalJSON encodes the severity as its canonical name.
func (s Severity) MarshalJSON() ([]byte, error) {
	name, ok := severityNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a canonical severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
