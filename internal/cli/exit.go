package cli

// ExitError carries a specific process exit code through cobra's error
// return. Used when an operation partially succeeds, e.g. an export
// that was written even though validation failed.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the wrapped error's message.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error { return e.Err }
