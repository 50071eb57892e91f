package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every business failure the engine reports. The set
// is closed: boundaries map codes to user-facing responses and must never
// meet a code they do not know.
type ErrorCode string

const (
	CodeNotFound                         ErrorCode = "not_found"
	CodeInvariantViolation               ErrorCode = "invariant_violation"
	CodeScrapeTargetExists               ErrorCode = "scrape_target_exists"
	CodeScrapeTargetReferencesOtherMedia ErrorCode = "scrape_target_references_other_media"
	CodeScrapeFailed                     ErrorCode = "scrape_failed"
	CodeUnsubscribeFailed                ErrorCode = "unsubscribe_failed"

	// CodeInternal marks faults normalized by the dispatcher, never a
	// business rule outcome.
	CodeInternal ErrorCode = "internal"
)

// Error is the typed failure carried by every failed operation.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a typed failure with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return NewError(CodeNotFound, format, args...)
}

func InvariantViolation(format string, args ...any) *Error {
	return NewError(CodeInvariantViolation, format, args...)
}

func ScrapeTargetExists(format string, args ...any) *Error {
	return NewError(CodeScrapeTargetExists, format, args...)
}

func ScrapeTargetReferencesOtherMedia(format string, args ...any) *Error {
	return NewError(CodeScrapeTargetReferencesOtherMedia, format, args...)
}

func ScrapeFailed(format string, args ...any) *Error {
	return NewError(CodeScrapeFailed, format, args...)
}

func UnsubscribeFailed(format string, args ...any) *Error {
	return NewError(CodeUnsubscribeFailed, format, args...)
}

func Internal(format string, args ...any) *Error {
	return NewError(CodeInternal, format, args...)
}

// CodeOf extracts the ErrorCode carried anywhere in err's chain. Foreign
// errors report CodeInternal so callers always receive a known code.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
