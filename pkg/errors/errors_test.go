package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(ErrCodeInvalidPath, "path %q is bad", "/x")
	if got := plain.Error(); got != `INVALID_PATH: path "/x" is bad` {
		t.Errorf("Error() = %q", got)
	}

	cause := stderrors.New("disk gone")
	wrapped := Wrap(ErrCodeLoadFailed, cause, "read file")
	if got := wrapped.Error(); got != "LOAD_FAILED: read file: disk gone" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsAndGetCode(t *testing.T) {
	err := Wrap(ErrCodeBadSnapshot, stderrors.New("truncated"), "parse")

	if !Is(err, ErrCodeBadSnapshot) {
		t.Error("Is() = false for matching code")
	}
	if Is(err, ErrCodeLoadFailed) {
		t.Error("Is() = true for non-matching code")
	}
	if Is(stderrors.New("plain"), ErrCodeBadSnapshot) {
		t.Error("Is() = true for a plain error")
	}

	if got := GetCode(err); got != ErrCodeBadSnapshot {
		t.Errorf("GetCode() = %s, want BAD_SNAPSHOT", got)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %s, want empty", got)
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeValidationUnavailable, "validator missing")
	outer := fmt.Errorf("starting inspection: %w", inner)

	if !Is(outer, ErrCodeValidationUnavailable) {
		t.Error("Is() should unwrap fmt.Errorf chains")
	}
	if !stderrors.Is(outer, outer) {
		t.Error("sanity: errors.Is broken")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found: %s", "x.nwb")
	if got := UserMessage(err); got != "file not found: x.nwb" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestValidateObjectPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"root", "/", false},
		{"nested", "/acquisition/series", false},
		{"odd but legal segment", "/acquisition/my series (v2)", false},
		{"empty", "", true},
		{"relative", "acquisition/series", true},
		{"control char", "/acq\x00uisition", true},
		{"backslash", `/acq\series`, true},
		{"too long", "/" + strings.Repeat("a", 1024), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateObjectPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("error code = %s, want INVALID_PATH", GetCode(err))
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	if err := ValidateOutputPath("out/structure.json"); err != nil {
		t.Errorf("ValidateOutputPath() error: %v", err)
	}
	if err := ValidateOutputPath(""); err == nil {
		t.Error("ValidateOutputPath accepted an empty path")
	}
	if err := ValidateOutputPath("bad\x00name"); err == nil {
		t.Error("ValidateOutputPath accepted a control character")
	}
}
