// Package errors defines the error taxonomy and JSON envelope shared by every
// HTTP-facing handler in this service.
package errors

// Code is a machine-readable error identifier returned to clients.
type Code string

const (
	CodeInvalidQuery       Code = "INVALID_QUERY"
	CodeValidationError    Code = "VALIDATION_ERROR"
	CodeInvalidAPIKey      Code = "INVALID_API_KEY"
	CodeCardNotFound       Code = "CARD_NOT_FOUND"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeScryfallAPIError   Code = "SCRYFALL_API_ERROR"
	CodeDatabaseError      Code = "DATABASE_ERROR"
)

// StatusCode returns the HTTP status associated with this error code.
func (c Code) StatusCode() int {
	switch c {
	case CodeInvalidQuery, CodeValidationError:
		return 400
	case CodeInvalidAPIKey:
		return 401
	case CodeCardNotFound:
		return 404
	case CodeRateLimitExceeded:
		return 429
	case CodeScryfallAPIError:
		return 502
	case CodeDatabaseError:
		return 503
	default:
		return 500
	}
}
