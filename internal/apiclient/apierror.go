package apiclient

import (
	"fmt"
	"net/http"
)

// DescTokenExpired is the envelope description the platform API sets
// on unauthorized responses caused by an expired access token. Any
// other unauthorized response means the token is invalid or revoked.
const DescTokenExpired = "token-expired"

// APIError is an application-level failure reported by the platform
// API: either a non-2xx transport status or a non-OK envelope code.
// It is the single error shape feature code has to deal with.
type APIError struct {
	Status      int
	Code        string
	Message     string
	Description string
	Data        map[string]interface{}
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api error %s (%d)", e.Code, e.Status)
}

func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func (e *APIError) Forbidden() bool {
	return e.Status == http.StatusForbidden
}

func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

func (e *APIError) Validation() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// TokenExpired reports whether the failure is the one recoverable
// auth case: the access token expired but the session is still good.
func (e *APIError) TokenExpired() bool {
	return e.Unauthorized() && e.Description == DescTokenExpired
}

// expected reports whether the status belongs to the set of failures
// feature code interprets itself. Anything else is surfaced to the
// user as a transient notice by the client.
func (e *APIError) expected() bool {
	return e.Validation() || e.Unauthorized() || e.NotFound() || e.Forbidden()
}

func newAPIError(status int, env *Envelope) *APIError {
	apiErr := &APIError{Status: status}
	if env != nil {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
		apiErr.Description = env.Description
		apiErr.Data = env.errorData()
	}
	return apiErr
}
