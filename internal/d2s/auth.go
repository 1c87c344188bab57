package d2s

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// API endpoints, relative to the configured base URL.
const (
	loginEndpoint       = "/api/v1/auth/access-token"
	refreshEndpoint     = "/api/v1/auth/refresh-token"
	currentUserEndpoint = "/api/v1/users/current"
	projectsEndpoint    = "/api/v1/projects"
)

// maxErrorBody caps how much of an error response body is kept for messages.
const maxErrorBody = 512

// Auth authenticates against a D2S instance and produces cookie-bearing
// sessions. It owns session creation; callers own the session's lifetime.
type Auth struct {
	baseURL    string
	host       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAuth creates an authenticator for the given D2S base URL.
// Nil httpClient and logger fall back to defaults.
func NewAuth(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Auth, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("d2s: parsing base URL %q: %w", baseURL, err)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("d2s: base URL %q has no host", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Auth{
		baseURL:    baseURL,
		host:       u.Hostname(),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Login submits form-encoded credentials to the token endpoint and returns
// a session holding the access_token (and refresh_token, when issued)
// cookies, scoped per the loopback rule. Login is complete only after the
// current-user fetch succeeds; a failed lookup fails the login with
// ErrUserLookupFailed even though token cookies were issued.
//
// The D2S token endpoint names the email field "username".
func (a *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, a.baseURL+loginEndpoint, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("d2s: creating login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("d2s: login request: %w", err)
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()

	if readErr != nil {
		body = []byte("(failed to read response body)")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{StatusCode: resp.StatusCode, Err: ErrInvalidCredentials}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	session, ok := a.sessionFromCookies(resp.Cookies())
	if !ok {
		// 200 without an access_token cookie is not a valid login.
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "no access_token cookie in response"}
	}

	a.logger.Debug("token cookies stored",
		slog.String("host", a.host),
		slog.Bool("loopback", isLoopback(a.host)),
	)

	// Login is not complete until the user lookup succeeds.
	user, status, err := a.fetchUser(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("d2s: %w: %w", ErrUserLookupFailed, err)
	}

	if status != http.StatusOK {
		return nil, &AuthError{StatusCode: status, Err: ErrUserLookupFailed}
	}

	if user.APIAccessToken != "" {
		session.SetAPIKey(user.APIAccessToken)
	}

	a.logger.Info("login successful",
		slog.String("host", a.host),
		slog.String("user_id", user.ID),
	)

	return session, nil
}

// CurrentUser fetches the identity record for the session's user. This is a
// best-effort lookup, not a trust boundary check: a non-200 response yields
// (nil, nil). Only transport failures return an error.
func (a *Auth) CurrentUser(ctx context.Context, session *Session) (*User, error) {
	user, status, err := a.fetchUser(ctx, session)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		a.logger.Debug("current user lookup returned non-200",
			slog.Int("status", status),
		)

		return nil, nil
	}

	return user, nil
}

// fetchUser performs the current-user GET and decodes the response when the
// status is 200. The status code is returned so callers can apply their own
// policy (Login treats non-200 as fatal, CurrentUser as absence).
func (a *Auth) fetchUser(ctx context.Context, session *Session) (*User, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+currentUserEndpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("d2s: creating user request: %w", err)
	}

	session.attach(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("d2s: user request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("d2s: decoding user response: %w", err)
	}

	return &user, resp.StatusCode, nil
}

// sessionFromCookies builds a new session from the token endpoint's
// Set-Cookie response, rescoped to the target host. Reports false when no
// access_token cookie is present.
func (a *Auth) sessionFromCookies(cookies []*http.Cookie) (*Session, bool) {
	session := NewSession()

	found := false

	for _, c := range cookies {
		switch c.Name {
		case accessTokenCookie:
			found = true

			session.SetCookie(scopedCookie(a.host, c.Name, c.Value))
		case refreshTokenCookie:
			session.SetCookie(scopedCookie(a.host, c.Name, c.Value))
		}
	}

	return session, found
}
