// ABOUTME: Token provisioner creating session and remember-me tokens
// ABOUTME: Secrets are bcrypt-hashed before they ever reach the store

package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/fold-login/internal/user"
)

// Provider provisions tokens on top of a Store.
type Provider struct {
	store  Store
	logger *slog.Logger
}

// NewProvider creates a token provider.
func NewProvider(store Store, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default().With("component", "token")
	}
	return &Provider{store: store, logger: logger}
}

// CreateSessionToken creates the primary token for a transport session.
// At most one session token exists per session id: creating again for the
// same session replaces the artifact instead of duplicating it. secret is
// nil when the backend vouched for the identity without a credential.
func (p *Provider) CreateSessionToken(ctx context.Context, sessionID, uid, loginName string, secret *string) (*Token, error) {
	if sessionID == "" {
		return nil, ErrSessionUnavailable
	}

	hash := ""
	if secret != nil && *secret != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(*secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing session secret: %w", err)
		}
		hash = string(h)
	}

	now := time.Now().UTC()
	t := &Token{
		ID:           uuid.New().String(),
		Kind:         KindSession,
		SessionID:    sessionID,
		UID:          uid,
		LoginName:    loginName,
		SecretHash:   hash,
		Scopes:       map[string]bool{},
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := p.store.SaveToken(ctx, t); err != nil {
		return nil, fmt.Errorf("saving session token: %w", err)
	}

	p.logger.Debug("session token created", "uid", uid, "token_id", t.ID)
	return t, nil
}

// CreateRememberMeToken creates the longer-lived companion token for
// session restoration. The raw secret is returned exactly once; only its
// hash is stored.
func (p *Provider) CreateRememberMeToken(ctx context.Context, u *user.User) (*Token, string, error) {
	secret := uuid.New().String()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing remember-me secret: %w", err)
	}

	now := time.Now().UTC()
	t := &Token{
		ID:           uuid.New().String(),
		Kind:         KindRememberMe,
		UID:          u.UID,
		LoginName:    u.UID,
		SecretHash:   string(h),
		Scopes:       map[string]bool{},
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := p.store.SaveToken(ctx, t); err != nil {
		return nil, "", fmt.Errorf("saving remember-me token: %w", err)
	}

	p.logger.Debug("remember-me token created", "uid", u.UID, "token_id", t.ID)
	return t, secret, nil
}

// GetToken returns the session token keyed by the transport session id.
// Fails with ErrSessionUnavailable for an empty id, ErrNotFound when no
// token exists and ErrInvalid when the token has been wiped.
func (p *Provider) GetToken(ctx context.Context, sessionID string) (*Token, error) {
	if sessionID == "" {
		return nil, ErrSessionUnavailable
	}
	t, err := p.store.TokenBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if t.Wiped {
		return nil, ErrInvalid
	}
	return t, nil
}

// UpdateToken persists scope and metadata changes.
func (p *Provider) UpdateToken(ctx context.Context, t *Token) error {
	t.LastActivity = time.Now().UTC()
	if err := p.store.UpdateToken(ctx, t); err != nil {
		return fmt.Errorf("updating token: %w", err)
	}
	return nil
}

// InvalidateForUser removes every token owned by uid, session and
// remember-me alike.
func (p *Provider) InvalidateForUser(ctx context.Context, uid string) error {
	return p.store.DeleteTokensForUser(ctx, uid)
}
