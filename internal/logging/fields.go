package logging

// Field names shared across handlers, middleware, and background jobs so
// log lines can be correlated by downstream tooling regardless of which
// package emitted them.
const (
	FieldRequestID = "request_id"
	FieldRoute     = "route"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldErrorCode = "error_code"
	FieldCause     = "cause"
	FieldDuration  = "duration_ms"
	FieldQuery     = "query"
	FieldCardID    = "card_id"
	FieldTier      = "tier"
	FieldComponent = "component"
)
