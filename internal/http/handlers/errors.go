// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case and form the stable taxonomy
// clients branch on; the accompanying message is free to change. Handlers
// pick the most specific matching code and pass it to fail() together with
// the HTTP status.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeEmailTaken       = "email_taken"
	ErrCodeBadCredentials   = "bad_credentials"
	ErrCodeBadCursor        = "bad_cursor"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeFeedFailed       = "feed_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
