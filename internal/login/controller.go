// ABOUTME: Login orchestrator driving externally-asserted identities into sessions
// ABOUTME: Emits ordered lifecycle events and provisions scoped session tokens

package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/fold-login/internal/backend"
	"github.com/2389/fold-login/internal/events"
	"github.com/2389/fold-login/internal/session"
	"github.com/2389/fold-login/internal/token"
	"github.com/2389/fold-login/internal/user"
)

// Filesystem is the delegated storage collaborator. Setup must complete
// before login-completion events fire: observers assume the user's storage
// is mounted once they see UserLoggedIn.
type Filesystem interface {
	Setup(ctx context.Context, uid string) error
	UserFolder(ctx context.Context, uid string) error
}

// Routes resolves route names to URLs. Owned by the transport layer.
type Routes interface {
	RouteURL(name string) string
}

// CSRF mints anti-forgery request tokens for the default logout URL.
type CSRF interface {
	NewToken() (string, error)
}

// Cookies is the optional transport hook for clearing the remember-me
// cookie hint before an SSO login takes over the session.
type Cookies interface {
	ClearRememberMe(ctx context.Context)
}

// Deps bundles the orchestrator's collaborators. Registry, Users, Groups
// and Tokens are required; the rest degrade to no-ops when nil.
type Deps struct {
	Registry *backend.Registry
	Users    user.Directory
	Groups   user.Groups
	Tokens   *token.Provider
	Events   *events.Dispatcher

	Filesystem Filesystem
	Routes     Routes
	CSRF       CSRF
	Cookies    Cookies

	// ExtraBackends are re-applied before an SSO login, mirroring the
	// pre-login backend setup pass. SetupFromConfig is idempotent, so
	// re-running it per request is cheap.
	ExtraBackends map[string]backend.Spec

	Logger *slog.Logger
}

// Controller orchestrates external-assertion logins.
type Controller struct {
	registry *backend.Registry
	users    user.Directory
	groups   user.Groups
	tokens   *token.Provider
	events   *events.Dispatcher

	fs      Filesystem
	routes  Routes
	csrf    CSRF
	cookies Cookies

	extraBackends map[string]backend.Spec
	logger        *slog.Logger
}

// NewController creates a login controller from its dependencies.
func NewController(deps Deps) *Controller {
	ev := deps.Events
	if ev == nil {
		ev = events.NewDispatcher()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "login")
	}
	return &Controller{
		registry:      deps.Registry,
		users:         deps.Users,
		groups:        deps.Groups,
		tokens:        deps.Tokens,
		events:        ev,
		fs:            deps.Filesystem,
		routes:        deps.Routes,
		csrf:          deps.CSRF,
		cookies:       deps.Cookies,
		extraBackends: deps.ExtraBackends,
		logger:        logger,
	}
}

// Events exposes the dispatcher so callers can subscribe observers.
func (c *Controller) Events() *events.Dispatcher { return c.events }

// HandleExternalAuth checks whether any registered backend asserts an
// authenticated session for the current request. Returns handled=false
// when no backend claims the request; otherwise authenticated reports the
// login outcome. The first matching active backend wins.
func (c *Controller) HandleExternalAuth(ctx context.Context, st *session.State) (authenticated, handled bool, err error) {
	b := c.registry.FirstActive(ctx)
	if b == nil {
		return false, false, nil
	}

	// Extra backends declared in config join before the login runs.
	if len(c.extraBackends) > 0 {
		c.registry.SetupFromConfig(c.extraBackends)
	}

	// The SSO assertion supersedes any remember-me restoration hint.
	if c.cookies != nil {
		c.cookies.ClearRememberMe(ctx)
	}

	ok, err := c.LoginWithExternal(ctx, st, b)
	return ok, true, err
}

// LoginWithExternal logs in a user whose authentication already happened
// in a trusted front layer. Returns false with a nil error when the
// backend asserts no user id, true when the identity is (or already was)
// bound to the session.
//
// The lifecycle is strictly ordered: pre-login event, guards, identity
// binding, before-login event, token provisioning, best-effort scope
// augmentation, filesystem setup, completion event, home-folder trigger.
func (c *Controller) LoginWithExternal(ctx context.Context, st *session.State, b backend.External) (bool, error) {
	uid := b.CurrentUserID(ctx)

	started := &events.LoginStarted{
		UID:     uid,
		Backend: b,
		Proceed: true,
		Attrs: events.Attributes{
			"run":     true,
			"uid":     uid,
			"backend": b.Name(),
		},
	}
	// Proceed is emitted for observability only; observers cannot veto the
	// login through it. Kept to match the historical hook contract.
	c.events.EmitLoginStarted(started)

	if uid == "" {
		return false, nil
	}

	if st.CurrentUserID() == uid {
		// Repeated assertion within one request: no duplicate tokens, no
		// duplicate events.
		return true, nil
	}

	// The disabled check runs before any session mutation so a rejected
	// login leaves no identity behind.
	u, err := c.users.Get(ctx, uid)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return false, fmt.Errorf("resolving user %q: %w", uid, err)
	}
	if u != nil && !u.Enabled {
		return false, &DisabledAccountError{UID: uid}
	}

	st.SetUserID(ctx, uid)
	st.SetLoginName(uid)

	var secret *string
	if sp, ok := b.(backend.SecretProvider); ok {
		if s, ok := sp.CurrentUserSecret(ctx); ok {
			secret = &s
		}
	}

	c.events.EmitBeforeLogin(events.BeforeLogin{
		UID:     uid,
		Secret:  secret,
		Backend: b,
		Attrs: events.Attributes{
			"uid":     uid,
			"backend": b.Name(),
		},
	})

	sessionTok, err := c.tokens.CreateSessionToken(ctx, st.Session().ID(), uid, uid, secret)
	if err != nil {
		return false, fmt.Errorf("creating session token: %w", err)
	}
	if u != nil {
		if _, _, err := c.tokens.CreateRememberMeToken(ctx, u); err != nil {
			return false, fmt.Errorf("creating remember-me token: %w", err)
		}
	}

	if secret == nil {
		// Pure SSO trust: the backend vouched for the identity without a
		// credential, so the token must not be password-validated later.
		c.grantTrustScopes(ctx, st)
	}

	if c.fs != nil {
		if err := c.fs.Setup(ctx, uid); err != nil {
			c.logger.Error("filesystem setup failed", "uid", uid, "error", err)
		}
	}

	secretAttr := ""
	if secret != nil {
		secretAttr = *secret
	}
	c.events.EmitUserLoggedIn(events.UserLoggedIn{
		User:       u,
		UID:        uid,
		Token:      sessionTok,
		TokenLogin: false,
		Attrs: events.Attributes{
			"uid":          uid,
			"password":     secretAttr,
			"isTokenLogin": false,
		},
	})

	if c.fs != nil {
		if err := c.fs.UserFolder(ctx, uid); err != nil {
			c.logger.Error("user folder creation failed", "uid", uid, "error", err)
		}
	}

	c.logger.Info("external login completed", "uid", uid, "backend", b.Name())
	return true, nil
}

// grantTrustScopes marks the freshly-created session token as exempt from
// password validation and grants filesystem access. Best-effort: a missing
// or invalid token, or an unavailable transport session, simply skips the
// augmentation without failing the login.
func (c *Controller) grantTrustScopes(ctx context.Context, st *session.State) {
	t, err := c.tokens.GetToken(ctx, st.Session().ID())
	if err != nil {
		c.logger.Debug("skipping token scope update", "error", err)
		return
	}

	t.SetScope(map[string]bool{
		token.ScopeSkipPasswordValidation: true,
		token.ScopeFilesystem:             true,
	})
	if err := c.tokens.UpdateToken(ctx, t); err != nil {
		c.logger.Debug("token scope update failed", "error", err)
	}
}

// Logout unbinds the session identity, wipes the session token and emits
// the logout event. Token wiping is best-effort.
func (c *Controller) Logout(ctx context.Context, st *session.State) {
	uid := st.CurrentUserID()

	if t, err := c.tokens.GetToken(ctx, st.Session().ID()); err == nil {
		t.Wiped = true
		if err := c.tokens.UpdateToken(ctx, t); err != nil {
			c.logger.Debug("token wipe failed", "error", err)
		}
	}

	st.Unbind()

	c.events.EmitLoggedOut(events.LoggedOut{
		UID:   uid,
		Attrs: events.Attributes{"uid": uid},
	})
	c.logger.Info("logged out", "uid", uid)
}
