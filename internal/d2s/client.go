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

const defaultUserAgent = "d2s-go/0.1"

// Client makes authenticated GET requests to the D2S API. On a 401 it
// attempts exactly one token refresh and one retry — no backoff, no
// multi-attempt loops — so request latency stays predictable and a truly
// expired session surfaces immediately.
//
// The client is stateless across calls apart from the shared session; it is
// safe to share one Client across every resource in a hierarchy.
type Client struct {
	baseURL    string
	host       string
	httpClient *http.Client
	session    *Session
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates an API client over an authenticated session. The session
// must already contain an access_token cookie; construction fails with
// ErrMissingAccessToken before any network call otherwise.
func NewClient(baseURL string, session *Session, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("d2s: parsing base URL %q: %w", baseURL, err)
	}

	if _, ok := session.Cookie(accessTokenCookie); !ok {
		return nil, fmt.Errorf("d2s: creating client: %w", ErrMissingAccessToken)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		host:       u.Hostname(),
		httpClient: httpClient,
		session:    session,
		logger:     logger,
		userAgent:  defaultUserAgent,
	}, nil
}

// Session returns the session the client authenticates with. Callers that
// persist cookies use this to pick up tokens rotated by a refresh.
func (c *Client) Session() *Session {
	return c.session
}

// SetUserAgent overrides the User-Agent header sent with every request.
// An empty string keeps the default.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// RefreshAccessToken rotates the token cookies using the refresh_token
// cookie. It never fails: a session without a refresh token, a transport
// error, or a non-200 response all yield false, and the caller decides what
// to do next. On success the new cookies are rescoped with the same
// loopback rule as login.
func (c *Client) RefreshAccessToken(ctx context.Context) bool {
	if _, ok := c.session.Cookie(refreshTokenCookie); !ok {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshEndpoint, nil)
	if err != nil {
		return false
	}

	req.Header.Set("User-Agent", c.userAgent)
	c.session.attach(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("token refresh failed",
			slog.String("error", err.Error()),
		)

		return false
	}

	defer func() {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("token refresh rejected",
			slog.Int("status", resp.StatusCode),
		)

		return false
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == accessTokenCookie || ck.Name == refreshTokenCookie {
			c.session.SetCookie(scopedCookie(c.host, ck.Name, ck.Value))
		}
	}

	c.logger.Debug("access token refreshed")

	return true
}

// Get performs an authenticated GET against the given endpoint and returns
// the JSON body verbatim — no schema validation at this layer; typing is the
// resource layer's job.
//
// On a 401 (except for the refresh endpoint itself, to prevent recursion)
// the client refreshes once and retries once. If the refresh fails, all
// session cookies are cleared and the call fails with ErrSessionExpired.
// Any other non-2xx status, after at most one retry, yields an *APIError.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	body, status, err := c.doGet(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && endpoint != refreshEndpoint {
		if !c.RefreshAccessToken(ctx) {
			c.session.Clear()

			return nil, fmt.Errorf("d2s: GET %s: %w", endpoint, ErrSessionExpired)
		}

		c.logger.Debug("retrying request after token refresh",
			slog.String("endpoint", endpoint),
		)

		body, status, err = c.doGet(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}

		return nil, &APIError{StatusCode: status, Endpoint: endpoint, Message: msg}
	}

	return json.RawMessage(body), nil
}

// doGet executes a single GET (no retry) and returns the full body and
// status code.
func (c *Client) doGet(ctx context.Context, endpoint string, query url.Values) ([]byte, int, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("d2s: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	c.session.attach(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("d2s: GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("d2s: reading response body: %w", err)
	}

	c.logger.Debug("request completed",
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
	)

	return body, resp.StatusCode, nil
}
