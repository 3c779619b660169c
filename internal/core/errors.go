package core

// Error codes surfaced in outbound error envelopes.
const (
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeForbidden       = "forbidden"
	ErrCodeNotFound        = "not_found"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeInvalidCall     = "invalid_call"
	ErrCodePersistence     = "persistence_failure"
	ErrCodeRateLimited     = "rate_limited"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}
