// ABOUTME: Logout URL resolution across backend and session precedence
// ABOUTME: Active SSO backend wins, then the user's own backend, then the default route

package login

import (
	"context"
	"net/url"

	"github.com/2389/fold-login/internal/backend"
	"github.com/2389/fold-login/internal/session"
)

// LogoutURL resolves the logout URL for the current request. Precedence,
// first match wins:
//
//  1. an active external backend with a custom logout page
//  2. the session user's own backend, when it has a custom logout page
//  3. the default logout route with a fresh anti-forgery token appended
func (c *Controller) LogoutURL(ctx context.Context, st *session.State) string {
	if b := c.registry.FirstActive(ctx); b != nil {
		if u := customLogoutURL(b); u != "" {
			return u
		}
	}

	if uid := st.CurrentUserID(); uid != "" {
		if u, err := c.users.Get(ctx, uid); err == nil {
			if b := c.registry.Lookup(u.Backend); b != nil {
				if lu := customLogoutURL(b); lu != "" {
					return lu
				}
			}
		}
	}

	logoutURL := ""
	if c.routes != nil {
		logoutURL = c.routes.RouteURL("logout")
	}
	if c.csrf != nil {
		tok, err := c.csrf.NewToken()
		if err != nil {
			c.logger.Error("request token generation failed", "error", err)
			return logoutURL
		}
		logoutURL += "?requesttoken=" + url.QueryEscape(tok)
	}
	return logoutURL
}

// customLogoutURL returns the backend's custom logout URL, or "" when the
// capability is absent or unset.
func customLogoutURL(b backend.Backend) string {
	cl, ok := b.(backend.CustomLogout)
	if !ok {
		return ""
	}
	return cl.LogoutURL()
}
