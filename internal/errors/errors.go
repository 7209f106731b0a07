// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrMissingTicker  = errors.New("submission missing ticker code")
	ErrMissingDate    = errors.New("missing required date")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrBadNumeric     = errors.New("invalid numeric field")
	ErrMissingLink    = errors.New("missing document link")
	ErrFileNotFound   = errors.New("historical data file not found")
	ErrUnknownOrder   = errors.New("unknown ordering column")
	ErrNotFound       = errors.New("instrument not found")
)

// PartialBatchError reports a sub-batch where some but not all records were
// accepted. It always escalates to a whole-submission rollback.
type PartialBatchError struct {
	Kind      string
	Accepted  int
	Submitted int
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("partial %s batch: accepted %d/%d records before rollback", e.Kind, e.Accepted, e.Submitted)
}

// NewPartialBatchError creates a new PartialBatchError.
func NewPartialBatchError(kind string, accepted, submitted int) *PartialBatchError {
	return &PartialBatchError{
		Kind:      kind,
		Accepted:  accepted,
		Submitted: submitted,
	}
}

// SubmissionError wraps an unexpected failure while applying a submission.
type SubmissionError struct {
	Ticker string
	Kind   string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("submission for %s failed in %s: %v", e.Ticker, e.Kind, e.Err)
	}
	return fmt.Sprintf("submission for %s failed: %v", e.Ticker, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NewSubmissionError creates a new SubmissionError.
func NewSubmissionError(ticker, kind string, err error) *SubmissionError {
	return &SubmissionError{
		Ticker: ticker,
		Kind:   kind,
		Err:    err,
	}
}

// IsClientError reports whether the error is the caller's fault and should
// map to a 4xx response rather than a server failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingTicker) ||
		errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrUnknownOrder)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
