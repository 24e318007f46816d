package errors

import (
	"strings"
	"unicode"
)

// ValidateObjectPath validates a structure path used to key nodes in a tree.
//
// The validation rules are intentionally conservative:
//   - Path cannot be empty
//   - Must be absolute (start with /)
//   - No null bytes or control characters
//   - No backslashes (Windows-style separators)
//   - Maximum length of 1024 characters
//
// Path segments themselves are not restricted: source files can legally
// contain object names with unusual characters, and the validator may
// report on exactly such names.
func ValidateObjectPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	if !strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be absolute (start with /)")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateOutputPath validates a user-supplied export target path.
// It ensures the filename is printable and non-empty; directories are
// created by the writer, so existence is not checked here.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output path contains invalid characters")
		}
	}
	return nil
}
