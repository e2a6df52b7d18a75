package atlasclient

import "fmt"

// AuthError wraps a 401/403 response from the control plane.
type AuthError struct {
	StatusCode int
	Path       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("atlasclient: auth error %d on %s", e.StatusCode, e.Path)
}

// NotFoundError wraps a 404 response.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("atlasclient: not found: %s", e.Path)
}

// RateLimitedError wraps a 429 response. The base client sleeps and retries
// once; if the retry is also rate limited, the caller sees a TransportError
// wrapping this RateLimitedError instead, so errors.As against
// *RateLimitedError still matches through the wrap.
type RateLimitedError struct {
	Path       string
	RetryAfter string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("atlasclient: rate limited on %s (retry-after %s)", e.Path, e.RetryAfter)
}

// TransportError wraps a network/timeout failure that persisted past the
// base client's single retry. It also carries a persistent 429: the base
// client treats a RateLimited failure that survives its retry the same as
// any other exhausted-retry transport failure, so Err will be a
// *RateLimitedError in that case.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("atlasclient: transport error on %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError wraps a 5xx response that persisted past the base client's
// single retry.
type ServerError struct {
	StatusCode int
	Path       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("atlasclient: server error %d on %s", e.StatusCode, e.Path)
}

// DecodeError wraps a malformed-JSON or missing-field response body.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("atlasclient: decode error on %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError is raised by the planner when a projected topology is
// off-ladder or inconsistent; the caller suppresses the commit.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("atlasclient: validation error: %s", e.Reason)
}

// ConflictError is raised when a PATCH is attempted on a cluster no longer
// observed in IDLE state; the caller suppresses the commit and does not
// update last-action.
type ConflictError struct {
	ClusterName string
	StateName   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("atlasclient: cluster %q not idle (state=%s)", e.ClusterName, e.StateName)
}
