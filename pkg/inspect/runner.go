package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/h-mayorquin/nwb-lens/pkg/errors"
)

// DefaultTimeout bounds a validator run. Observed latency is seconds;
// anything beyond this indicates a hung validator, not a slow file.
const DefaultTimeout = 5 * time.Minute

// Runner executes the external validator on a file.
type Runner struct {
	// Command is the validator argv prefix; the file path and report
	// destination are appended per run.
	Command []string

	// Timeout bounds one run. Zero means DefaultTimeout.
	Timeout time.Duration

	Logger *log.Logger
}

// NewRunner creates a runner for the given validator command.
// An empty command defaults to "nwbinspector".
func NewRunner(command []string, logger *log.Logger) *Runner {
	if len(command) == 0 {
		command = []string{"nwbinspector"}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Command: command, Logger: logger}
}

// Available reports whether the validator executable can be found.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.Command[0])
	return err == nil
}

// Run validates the file at path and returns the parsed report.
//
// A missing validator or a crashed/timed-out run is a validation error:
// the caller's tree remains fully usable, just without an overlay.
// Context cancellation is passed through unchanged so callers can tell
// a canceled run from a failed one.
func (r *Runner) Run(ctx context.Context, path string) (*Report, error) {
	if !r.Available() {
		return nil, errors.New(errors.ErrCodeValidationUnavailable,
			"validator %q not found in PATH", r.Command[0])
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reportFile, err := os.CreateTemp("", "nwb-lens-report-*.json")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidationFailed, err, "create report file")
	}
	reportPath := reportFile.Name()
	reportFile.Close()
	defer os.Remove(reportPath)

	args := append(append([]string{}, r.Command[1:]...), path, "--json-file-path", reportPath)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	r.Logger.Debug("running validator", "command", r.Command[0], "file", path)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if ctxErr == context.DeadlineExceeded {
				return nil, errors.Wrap(errors.ErrCodeValidationFailed, ctxErr,
					"validator timed out after %s", timeout)
			}
			return nil, ctxErr
		}
		return nil, errors.Wrap(errors.ErrCodeValidationFailed, err,
			"validator failed: %s", firstLine(stderr.String()))
	}
	r.Logger.Debug("validator finished", "duration", time.Since(start).Round(time.Millisecond))

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidationFailed, err, "read validator report")
	}
	report, err := ParseReport(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidationFailed, err, "parse validator report")
	}
	report.Validator = r.Command[0]
	return report, nil
}

// validatorMessage is one finding in the validator's native report.
type validatorMessage struct {
	Message       string `json:"message"`
	Importance    string `json:"importance"`
	CheckFunction string `json:"check_function_name"`
	Location      string `json:"location"`
	ObjectName    string `json:"object_name"`
}

// ParseReport decodes a validator report. Two shapes are accepted: the
// validator's native message list (bare or under "messages") and this
// tool's own Report encoding, so previously exported reports can be
// merged back without re-running the validator.
func ParseReport(data []byte) (*Report, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return &Report{GeneratedAt: time.Now().UTC()}, nil
	}

	var messages []validatorMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("decode message list: %w", err)
		}
		return fromMessages(messages), nil
	}

	var wrapped struct {
		Messages []validatorMessage `json:"messages"`
		Issues   []IssueRecord      `json:"issues"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if wrapped.Issues != nil {
		return &Report{Issues: wrapped.Issues, GeneratedAt: time.Now().UTC()}, nil
	}
	return fromMessages(wrapped.Messages), nil
}

// LoadReport reads and parses a validator report from a file.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidationFailed, err, "read report %s", path)
	}
	return ParseReport(data)
}

func fromMessages(messages []validatorMessage) *Report {
	report := &Report{GeneratedAt: time.Now().UTC()}
	for _, m := range messages {
		path := m.Location
		if path == "" {
			path = "/"
		}
		report.Issues = append(report.Issues, IssueRecord{
			Path:     path,
			Severity: SeverityForImportance(m.Importance),
			Message:  m.Message,
			CheckID:  m.CheckFunction,
		})
	}
	return report
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
