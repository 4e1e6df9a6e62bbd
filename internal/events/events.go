// ABOUTME: Typed login lifecycle events with legacy attribute maps attached
// ABOUTME: One event type per lifecycle point; consumers pick the shape they need

package events

import (
	"github.com/2389/fold-login/internal/backend"
	"github.com/2389/fold-login/internal/token"
	"github.com/2389/fold-login/internal/user"
)

// Attributes is the free-form payload older hook consumers expect. Every
// typed event carries one alongside its typed fields so both consumer
// styles keep working.
type Attributes map[string]any

// LoginStarted fires before any login work happens. Proceed mirrors the
// historical "run" veto flag: observers may clear it, but the orchestrator
// does not consult it afterwards. It exists for observability only.
type LoginStarted struct {
	UID     string
	Backend backend.Backend
	Proceed bool
	Attrs   Attributes
}

// BeforeLogin fires after the identity is bound to the session and before
// any token is created. Secret is nil for pure SSO trust logins.
type BeforeLogin struct {
	UID     string
	Secret  *string
	Backend backend.Backend
	Attrs   Attributes
}

// UserLoggedIn fires once per completed login, after the user's filesystem
// has been set up.
type UserLoggedIn struct {
	User       *user.User
	UID        string
	Token      *token.Token
	TokenLogin bool
	Attrs      Attributes
}

// LoggedOut fires when a session is explicitly terminated.
type LoggedOut struct {
	UID   string
	Attrs Attributes
}
