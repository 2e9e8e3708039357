package errors

import "fmt"

// LibrarianError is the structured error type for codelibrarian. It carries
// enough context to decide, at any call site, whether an error is fatal
// (configuration, dimension mismatch, store integrity) or should be
// collected and the run continued (per-file parse/read errors).
type LibrarianError struct {
	// Code is the unique error code (e.g. "ERR_402_DIMENSION_MISMATCH").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates whether the caller may retry the request that
	// produced this error (network-class errors only).
	Retryable bool
}

// Error implements the error interface.
func (e *LibrarianError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *LibrarianError) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is() to match LibrarianError values by code.
func (e *LibrarianError) Is(target error) bool {
	if t, ok := target.(*LibrarianError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error. Returns e for chaining.
func (e *LibrarianError) WithDetail(key, value string) *LibrarianError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new LibrarianError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *LibrarianError {
	return &LibrarianError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a LibrarianError from an existing error, using err.Error()
// as the message. Returns nil if err is nil.
func Wrap(code string, err error) *LibrarianError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error. Fatal: config problems
// are surfaced before any indexing work starts.
func ConfigError(message string, cause error) *LibrarianError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// DimensionMismatch creates the embedding-dimension-mismatch error. This
// must be a hard error surfaced to the user, never a partial index.
func DimensionMismatch(got, want int) *LibrarianError {
	return New(ErrCodeDimensionMismatch,
		fmt.Sprintf("embedding dimension mismatch: got %d, expected %d", got, want), nil)
}

// StoreIntegrity creates a store-integrity error. These never indicate a
// user condition — they are bugs, and callers should treat them as fatal
// rather than attempt to recover.
func StoreIntegrity(message string, cause error) *LibrarianError {
	return New(ErrCodeStoreIntegrity, message, cause)
}

// NetworkError creates a network-related error from the embedder's HTTP
// round trips. Retryable by default.
func NetworkError(message string, cause error) *LibrarianError {
	return New(ErrCodeNetworkTimeout, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *LibrarianError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates a generic internal error.
func InternalError(message string, cause error) *LibrarianError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if le, ok := err.(*LibrarianError); ok {
		return le.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a LibrarianError, or "" otherwise.
func GetCode(err error) string {
	if le, ok := err.(*LibrarianError); ok {
		return le.Code
	}
	return ""
}
