// ABOUTME: Session token model with capability scopes and store contract
// ABOUTME: Tokens are persisted artifacts representing one authenticated session

package token

import (
	"context"
	"errors"
	"time"
)

// Token errors
var (
	// ErrNotFound is returned when no token exists for a session.
	ErrNotFound = errors.New("token not found")
	// ErrInvalid is returned when the stored token has been wiped.
	ErrInvalid = errors.New("token invalid")
	// ErrSessionUnavailable is returned when no transport session id is
	// available to key the lookup.
	ErrSessionUnavailable = errors.New("transport session unavailable")
)

// Capability scopes attached to tokens.
const (
	// ScopeSkipPasswordValidation marks tokens whose backend vouched for
	// the identity without a password in hand.
	ScopeSkipPasswordValidation = "skip-password-validation"
	// ScopeFilesystem grants the session access to the user's storage.
	ScopeFilesystem = "filesystem-access"
)

// Token kinds.
const (
	KindSession    = "session"
	KindRememberMe = "remember-me"
)

// Token represents one authenticated session artifact.
type Token struct {
	ID           string
	Kind         string
	SessionID    string // empty for remember-me tokens
	UID          string
	LoginName    string
	SecretHash   string // bcrypt hash of the credential, empty when none
	Scopes       map[string]bool
	Wiped        bool
	CreatedAt    time.Time
	LastActivity time.Time
}

// SetScope replaces the token's capability scopes.
func (t *Token) SetScope(scopes map[string]bool) {
	t.Scopes = scopes
}

// HasScope reports whether the named scope is granted.
func (t *Token) HasScope(name string) bool {
	return t.Scopes[name]
}

// Store persists tokens. internal/store provides the SQLite implementation.
type Store interface {
	// SaveToken inserts a token, replacing any existing token for the same
	// session id.
	SaveToken(ctx context.Context, t *Token) error
	// TokenBySession returns the token keyed by the transport session id.
	TokenBySession(ctx context.Context, sessionID string) (*Token, error)
	// UpdateToken persists scope and activity changes.
	UpdateToken(ctx context.Context, t *Token) error
	// DeleteTokensForUser removes all tokens owned by uid.
	DeleteTokensForUser(ctx context.Context, uid string) error
}
