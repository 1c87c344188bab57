// Package d2s provides an HTTP client for the Data to Science (D2S) API
// with cookie-based session handling, transparent access-token refresh,
// and a read-only resource hierarchy (Workspace → Project → Flight →
// DataProduct).
package d2s

import (
	"errors"
	"fmt"
)

// Sentinel errors for authentication and session failures.
// Use errors.Is(err, d2s.ErrSessionExpired) to check.
var (
	// ErrInvalidCredentials indicates the token endpoint rejected the
	// email/password pair with 401.
	ErrInvalidCredentials = errors.New("d2s: invalid credentials")

	// ErrUserLookupFailed indicates login obtained token cookies but the
	// mandatory current-user fetch did not return 200. Login is not
	// complete without that step.
	ErrUserLookupFailed = errors.New("d2s: current user lookup failed")

	// ErrMissingAccessToken indicates a Client was constructed from a
	// session without an access_token cookie. Returned before any network
	// call is made.
	ErrMissingAccessToken = errors.New("d2s: session missing access token, sign in first")

	// ErrSessionExpired indicates a request got 401 and the refresh
	// attempt failed. All session cookies have been cleared; the caller
	// must re-authenticate.
	ErrSessionExpired = errors.New("d2s: session expired, sign in again")
)

// AuthError reports a failed login with the HTTP status the token endpoint
// (or the follow-up user lookup) returned. Err carries a sentinel for
// errors.Is() when the failure has a known cause.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("d2s: login failed with status %d: %v", e.StatusCode, e.Err)
	}

	return fmt.Sprintf("d2s: login failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError reports a non-2xx response that is not otherwise classified.
// It carries the status code and the endpoint that produced it.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("d2s: GET %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("d2s: GET %s: HTTP %d", e.Endpoint, e.StatusCode)
}
