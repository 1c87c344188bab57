package d2s

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthedSession returns a session holding an access token and, when
// withRefresh is set, a refresh token, both scoped for loopback.
func newAuthedSession(withRefresh bool) *Session {
	s := NewSession()
	s.SetCookie(scopedCookie("127.0.0.1", accessTokenCookie, "at-1"))

	if withRefresh {
		s.SetCookie(scopedCookie("127.0.0.1", refreshTokenCookie, "rt-1"))
	}

	return s
}

func newTestClient(t *testing.T, url string, session *Session) *Client {
	t.Helper()

	c, err := NewClient(url, session, http.DefaultClient, nil)
	require.NoError(t, err)

	return c
}

func TestNewClient_FailsFastWithoutAccessToken(t *testing.T) {
	// No network call is made: the URL points nowhere reachable.
	_, err := NewClient("http://127.0.0.1:1", NewSession(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("http://bad url", newAuthedSession(false), nil, nil)
	require.Error(t, err)
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(accessTokenCookie)
		require.NoError(t, err)
		assert.Equal(t, "at-1", c.Value)

		_, _ = w.Write([]byte(`[{"id":"p-1"}]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newAuthedSession(false))

	body, err := client.Get(context.Background(), "/api/v1/projects", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p-1"}]`, string(body))
}

func TestGet_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("has_raster"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newAuthedSession(false))

	_, err := client.Get(context.Background(), "/api/v1/projects", url.Values{"has_raster": {"true"}})
	require.NoError(t, err)
}

func TestGet_NoRefreshToken_SessionExpired(t *testing.T) {
	var gets atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		gets.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := newAuthedSession(false)
	client := newTestClient(t, srv.URL, session)

	_, err := client.Get(context.Background(), "/api/v1/projects", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Hard stop: all cookies cleared, exactly one request made.
	assert.Empty(t, session.Cookies())
	assert.Equal(t, int32(1), gets.Load())
}

func TestGet_RefreshAndRetryOnce(t *testing.T) {
	var gets, refreshes atomic.Int32

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		n := gets.Add(1)

		c, err := r.Cookie(accessTokenCookie)
		require.NoError(t, err)

		if n == 1 {
			assert.Equal(t, "at-1", c.Value)
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		// The retry must carry the rotated token.
		assert.Equal(t, "at-2", c.Value)
		_, _ = w.Write([]byte(`[{"id":"p-1"}]`))
	})

	mux.HandleFunc("POST "+refreshEndpoint, func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)

		c, err := r.Cookie(refreshTokenCookie)
		require.NoError(t, err)
		assert.Equal(t, "rt-1", c.Value)

		http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, Value: "at-2", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: refreshTokenCookie, Value: "rt-2", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := newAuthedSession(true)
	client := newTestClient(t, srv.URL, session)

	body, err := client.Get(context.Background(), "/api/v1/projects", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p-1"}]`, string(body))

	// Exactly one refresh and one retry.
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), gets.Load())

	// Rotated cookies are stored under the same scoping policy.
	rt, ok := session.Cookie(refreshTokenCookie)
	require.True(t, ok)
	assert.Equal(t, "rt-2", rt.Value)
	assert.Empty(t, rt.Domain)
}

func TestGet_RefreshRejected_SessionExpired(t *testing.T) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST "+refreshEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := newAuthedSession(true)
	client := newTestClient(t, srv.URL, session)

	_, err := client.Get(context.Background(), "/api/v1/projects", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, session.Cookies())
}

func TestGet_StillUnauthorizedAfterRefresh(t *testing.T) {
	// Refresh succeeds but the retried GET gets 401 again: the second 401 is
	// reported as a plain API error, never a second refresh.
	var gets, refreshes atomic.Int32

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, _ *http.Request) {
		gets.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST "+refreshEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		refreshes.Add(1)
		http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, Value: "at-2", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL, newAuthedSession(true))

	_, err := client.Get(context.Background(), "/api/v1/projects", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), gets.Load())
}

func TestGet_NoRefreshRecursionOnRefreshEndpoint(t *testing.T) {
	// A 401 from the refresh endpoint itself must not trigger another refresh.
	var refreshes atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			refreshes.Add(1)
		}

		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newAuthedSession(true))

	_, err := client.Get(context.Background(), refreshEndpoint, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(0), refreshes.Load())
}

func TestGet_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"not found"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newAuthedSession(false))

	_, err := client.Get(context.Background(), "/api/v1/projects/p-404", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "/api/v1/projects/p-404", apiErr.Endpoint)
	assert.Contains(t, apiErr.Message, "not found")
}

func TestRefreshAccessToken_NoRefreshCookie(t *testing.T) {
	// No refresh token: false without any network call.
	client := newTestClient(t, "http://127.0.0.1:1", newAuthedSession(false))

	assert.False(t, client.RefreshAccessToken(context.Background()))
}

func TestRefreshAccessToken_NetworkFailureSwallowed(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", newAuthedSession(true))

	assert.False(t, client.RefreshAccessToken(context.Background()))
}

func TestRefreshAccessToken_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, Value: "at-2", Path: "/"})
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	session := newAuthedSession(true)
	client := newTestClient(t, srv.URL, session)

	assert.True(t, client.RefreshAccessToken(context.Background()))

	at, ok := session.Cookie(accessTokenCookie)
	require.True(t, ok)
	assert.Equal(t, "at-2", at.Value)

	// Refresh token untouched when the server does not rotate it.
	rt, ok := session.Cookie(refreshTokenCookie)
	require.True(t, ok)
	assert.Equal(t, "rt-1", rt.Value)
}

func TestGet_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, srv.URL, newAuthedSession(false))

	_, err := client.Get(ctx, "/api/v1/projects", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAPIError_ErrorString(t *testing.T) {
	withMsg := &APIError{StatusCode: 500, Endpoint: "/api/v1/projects", Message: "boom"}
	assert.Contains(t, withMsg.Error(), "500")
	assert.Contains(t, withMsg.Error(), "/api/v1/projects")
	assert.Contains(t, withMsg.Error(), "boom")

	noMsg := &APIError{StatusCode: 502, Endpoint: "/api/v1/projects"}
	assert.Contains(t, noMsg.Error(), "502")
}
