package d2s

import (
	"net/http"
	"sort"
	"sync"
)

// Credential cookie names used by the D2S API.
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// Session holds the named credential cookies for one authenticated
// connection. It is shared read-only by every client and resource instance;
// only login and token refresh write to it. Concurrent refreshes are
// last-writer-wins — callers needing strict ordering must serialize refresh
// calls themselves.
type Session struct {
	mu      sync.RWMutex
	cookies map[string]*http.Cookie
	apiKey  string
}

// NewSession returns an empty session with no cookies.
func NewSession() *Session {
	return &Session{cookies: make(map[string]*http.Cookie)}
}

// SetCookie stores or replaces a cookie by name.
func (s *Session) SetCookie(c *http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookies[c.Name] = c
}

// Cookie returns the stored cookie with the given name, if any.
func (s *Session) Cookie(name string) (*http.Cookie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cookies[name]

	return c, ok
}

// Cookies returns all stored cookies, sorted by name for deterministic
// iteration.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*http.Cookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Clear removes every cookie from the session. Called when a refresh fails
// and the session is declared expired.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookies = make(map[string]*http.Cookie)
}

// SetAPIKey stores the user's API access token. It is kept for callers that
// want it but is never attached to outgoing requests — the D2S API
// authenticates through cookies.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apiKey = key
}

// APIKey returns the stored API access token, if any.
func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.apiKey
}

// attach adds every session cookie to the outgoing request.
func (s *Session) attach(req *http.Request) {
	for _, c := range s.Cookies() {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

// isLoopback reports whether the host is a loopback address for cookie
// scoping purposes. HTTP clients reject explicit domain attributes on
// loopback hosts, so cookies for them are stored host-only.
func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}

// scopedCookie builds a credential cookie scoped per the loopback rule:
// no explicit domain for localhost/127.0.0.1, otherwise the resolved
// hostname. Path is always "/".
func scopedCookie(host, name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:  name,
		Value: value,
		Path:  "/",
	}

	if !isLoopback(host) {
		c.Domain = host
	}

	return c
}
