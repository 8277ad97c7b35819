package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
)

// Error is a typed, API-facing error carrying a Code, a human-readable
// message, and optional structured details. It implements the standard
// error interface so it can flow through normal Go error handling and still
// be recovered with errors.As at the HTTP boundary.
type Error struct {
	Code      Code
	Message   string
	RequestID string
	Details   json.RawMessage
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with a fresh request ID. Callers that already know the
// inbound request's ID should use WithRequestID instead so the response
// carries the same ID the client sent (or that request-id middleware
// assigned), per SPEC_FULL.md §7.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, RequestID: uuid.NewString()}
}

// Wrap builds an Error around an underlying cause, preserving it for
// errors.Is/errors.As while presenting a safe, code-classified message to
// clients.
func Wrap(code Code, message string, cause error) *Error {
	e := New(code, message)
	e.cause = cause
	return e
}

// WithRequestID returns a copy of e stamped with the given request ID.
func (e *Error) WithRequestID(requestID string) *Error {
	clone := *e
	clone.RequestID = requestID
	return &clone
}

// WithDetails attaches structured, client-safe context to the error.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	if b, err := json.Marshal(details); err == nil {
		clone.Details = b
	}
	return &clone
}

func InvalidQuery(message string) *Error    { return New(CodeInvalidQuery, message) }
func ValidationError(message string) *Error { return New(CodeValidationError, message) }
func CardNotFound(id string) *Error {
	return New(CodeCardNotFound, fmt.Sprintf("card not found: %s", id))
}
func DatabaseError(message string, cause error) *Error {
	return Wrap(CodeDatabaseError, message, cause)
}
func ScryfallAPIError(message string, cause error) *Error {
	return Wrap(CodeScryfallAPIError, message, cause)
}
func InternalError(message string, cause error) *Error {
	return Wrap(CodeInternalError, message, cause)
}
func RateLimitExceeded(message string) *Error { return New(CodeRateLimitExceeded, message) }

// Response is the wire envelope for error responses (SPEC_FULL.md §6.1).
type Response struct {
	Success bool   `json:"success"`
	Error   Detail `json:"error"`
}

// Detail is the body of Response.Error.
type Detail struct {
	Code      Code            `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// Envelope renders e as the wire Response.
func (e *Error) Envelope() Response {
	return Response{
		Success: false,
		Error: Detail{
			Code:      e.Code,
			Message:   e.Message,
			RequestID: e.RequestID,
			Details:   e.Details,
		},
	}
}

// As reports whether err is (or wraps) an *Error, saving call sites the
// ceremony of declaring a *Error target for the standard library's errors.As.
func As(err error) (*Error, bool) {
	var target *Error
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}
