// ABOUTME: HTTP middleware resolving the session cookie and SSO assertions
// ABOUTME: Public-link paths run incognito; trusted proxy headers feed the orchestrator

package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/fold-login/internal/backend"
	"github.com/2389/fold-login/internal/login"
	"github.com/2389/fold-login/internal/session"
	"github.com/2389/fold-login/internal/user"
)

// Cookie names used by the HTTP layer.
const (
	SessionCookie    = "fold_session"
	RememberMeCookie = "fold_remember"
)

// responseWriterKey carries the ResponseWriter so collaborators invoked
// through context-only interfaces (cookie clearing) can reach it.
type responseWriterKey struct{}

func writerFromContext(ctx context.Context) (http.ResponseWriter, bool) {
	w, ok := ctx.Value(responseWriterKey{}).(http.ResponseWriter)
	return w, ok
}

// CookieClearer implements the login package's Cookies contract by
// expiring the remember-me cookie on the in-flight response.
type CookieClearer struct{}

// ClearRememberMe expires the remember-me cookie, if a response writer is
// reachable from the context.
func (CookieClearer) ClearRememberMe(ctx context.Context) {
	w, ok := writerFromContext(ctx)
	if !ok {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RememberMeCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Middleware wires sessions, incognito handling and SSO assertion into the
// request context for downstream handlers.
type Middleware struct {
	sessions   *session.Registry
	users      user.Directory
	groups     user.Groups
	controller *login.Controller

	remoteUserHeader   string
	remoteSecretHeader string
	publicPrefixes     []string

	logger *slog.Logger
}

// NewMiddleware creates the session middleware.
func NewMiddleware(sessions *session.Registry, users user.Directory, groups user.Groups, controller *login.Controller, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default().With("component", "httpapi")
	}
	return &Middleware{
		sessions:   sessions,
		users:      users,
		groups:     groups,
		controller: controller,
		logger:     logger,
	}
}

// TrustHeaders enables reverse-proxy identity assertion from the given
// header names. secretHeader may be empty.
func (m *Middleware) TrustHeaders(userHeader, secretHeader string) {
	m.remoteUserHeader = userHeader
	m.remoteSecretHeader = secretHeader
}

// PublicPrefixes marks URL path prefixes as anonymous-access contexts.
func (m *Middleware) PublicPrefixes(prefixes []string) {
	m.publicPrefixes = prefixes
}

// Handler wraps next with session resolution, incognito handling and SSO
// login orchestration.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), responseWriterKey{}, w)

		sess := m.resolveSession(w, r)
		st := session.NewState(sess, m.users, m.groups)

		// Public-link requests are anonymous regardless of session state.
		for _, prefix := range m.publicPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				st.SetIncognito(true)
				break
			}
		}

		if m.remoteUserHeader != "" {
			if uid := r.Header.Get(m.remoteUserHeader); uid != "" {
				a := backend.Assertion{UID: uid}
				if m.remoteSecretHeader != "" {
					if s := r.Header.Get(m.remoteSecretHeader); s != "" {
						a.Secret = s
						a.HasSecret = true
					}
				}
				ctx = backend.WithAssertion(ctx, a)
			}
		}

		if !st.IsIncognito() {
			_, handled, err := m.controller.HandleExternalAuth(ctx, st)
			if err != nil {
				var disabled *login.DisabledAccountError
				if errors.As(err, &disabled) {
					http.Error(w, `{"error":"account disabled"}`, http.StatusForbidden)
					return
				}
				m.logger.Error("external auth failed", "error", err)
				http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
				return
			}
			_ = handled
		}

		next.ServeHTTP(w, r.WithContext(session.WithState(ctx, st)))
	})
}

// resolveSession finds the request's session via the session cookie,
// creating a fresh session (and cookie) when none resolves.
func (m *Middleware) resolveSession(w http.ResponseWriter, r *http.Request) session.Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess := m.sessions.Get(c.Value); sess != nil {
			return sess
		}
	}

	sess := m.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}
