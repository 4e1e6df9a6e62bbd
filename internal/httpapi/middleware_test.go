// ABOUTME: HTTP-level tests for session middleware and the API handlers
// ABOUTME: Trusted-header SSO, public-prefix incognito and logout via httptest

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/fold-login/internal/backend"
	"github.com/2389/fold-login/internal/events"
	"github.com/2389/fold-login/internal/login"
	"github.com/2389/fold-login/internal/session"
	"github.com/2389/fold-login/internal/token"
	"github.com/2389/fold-login/internal/user"
)

type fakeDirectory map[string]*user.User

func (f fakeDirectory) Get(_ context.Context, uid string) (*user.User, error) {
	u, ok := f[uid]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type fakeGroups map[string]bool

func (f fakeGroups) IsAdmin(_ context.Context, uid string) (bool, error) {
	return f[uid], nil
}

type memTokenStore struct {
	tokens map[string]*token.Token
}

func (m *memTokenStore) SaveToken(_ context.Context, t *token.Token) error {
	if t.SessionID != "" {
		for id, existing := range m.tokens {
			if existing.SessionID == t.SessionID {
				delete(m.tokens, id)
			}
		}
	}
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memTokenStore) TokenBySession(_ context.Context, sessionID string) (*token.Token, error) {
	for _, t := range m.tokens {
		if t.SessionID == sessionID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, token.ErrNotFound
}

func (m *memTokenStore) UpdateToken(_ context.Context, t *token.Token) error {
	if _, ok := m.tokens[t.ID]; !ok {
		return token.ErrNotFound
	}
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memTokenStore) DeleteTokensForUser(_ context.Context, uid string) error {
	for id, t := range m.tokens {
		if t.UID == uid {
			delete(m.tokens, id)
		}
	}
	return nil
}

// newTestServer wires the full request path: middleware, controller with a
// trusted-header backend, and the JSON API.
func newTestServer(t *testing.T) (http.Handler, *session.Registry) {
	t.Helper()

	users := fakeDirectory{
		"alice": {UID: "alice", DisplayName: "Alice", Enabled: true, Backend: "database"},
		"bob":   {UID: "bob", Enabled: false, Backend: "database"},
	}
	groups := fakeGroups{"alice": true}

	registry := backend.NewRegistry(nil)
	registry.Register(backend.NewTrustedHeader(""))

	sessions := session.NewRegistry()
	controller := login.NewController(login.Deps{
		Registry: registry,
		Users:    users,
		Groups:   groups,
		Tokens:   token.NewProvider(&memTokenStore{tokens: map[string]*token.Token{}}, nil),
		Events:   events.NewDispatcher(),
		Routes:   RouteTable{},
		CSRF:     NewRequestTokenSource([]byte("test-secret"), time.Hour),
		Cookies:  CookieClearer{},
	})

	api := NewAPI(controller, sessions, nil)
	mux := http.NewServeMux()
	api.Routes(mux)

	mw := NewMiddleware(sessions, users, groups, controller, nil)
	mw.TrustHeaders("X-Remote-User", "X-Remote-Secret")
	mw.PublicPrefixes([]string{"/s/"})

	outer := http.NewServeMux()
	outer.Handle("/api/", mw.Handler(mux))
	outer.Handle("/healthz", mw.Handler(mux))
	outer.Handle("/s/", mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Public-link surface reuses the whoami handler shape for the test.
		api.handleWhoami(w, r)
	})))

	return outer, sessions
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestMiddleware_IssuesSessionCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "a fresh session cookie must be set")
	assert.NotEmpty(t, sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)
}

func TestMiddleware_AnonymousWithoutAssertion(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	body := decodeJSON(t, rec)
	assert.Equal(t, false, body["authenticated"])
}

func TestMiddleware_TrustedHeaderLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("X-Remote-User", "alice")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "alice", body["uid"])
	assert.Equal(t, true, body["admin"])
}

func TestMiddleware_TrustedHeaderClearsRememberMe(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("X-Remote-User", "alice")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == RememberMeCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "remember-me cookie must be expired when SSO takes over")
}

func TestMiddleware_DisabledAccountRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("X-Remote-User", "bob")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_PublicPrefixIsIncognito(t *testing.T) {
	srv, _ := newTestServer(t)

	// Even with a valid assertion, a public-link path stays anonymous.
	req := httptest.NewRequest(http.MethodGet, "/s/abc123", nil)
	req.Header.Set("X-Remote-User", "alice")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, false, body["authenticated"])
}

func TestMiddleware_SessionPersistsAcrossRequests(t *testing.T) {
	srv, sessions := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("X-Remote-User", "alice")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Equal(t, 1, sessions.Len())

	// Second request with the cookie but without the assertion header still
	// sees the bound identity.
	req = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	for _, c := range cookies {
		if c.Name == SessionCookie {
			req.AddCookie(c)
		}
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "alice", body["uid"])
	assert.Equal(t, 1, sessions.Len(), "no second session should be created")
}

func TestLogoutEndpoint(t *testing.T) {
	srv, sessions := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("X-Remote-User", "alice")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	cookies := rec.Result().Cookies()

	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	for _, c := range cookies {
		if c.Name == SessionCookie {
			req.AddCookie(c)
		}
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, sessions.Len(), "logout removes the transport session")

	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie && c.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired, "session cookie must be expired on logout")
}

func TestLogoutURLEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/logout-url", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	got, _ := body["logout_url"].(string)
	assert.Contains(t, got, "/api/logout")
	assert.Contains(t, got, "requesttoken=")
}
