// ABOUTME: Token store implementation over the SQLite database
// ABOUTME: One session token per transport session, enforced by replacement on save

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/fold-login/internal/token"
)

// SaveToken implements token.Store. Saving a session token replaces any
// existing token for the same session id so a session never accumulates
// duplicate artifacts.
func (s *SQLiteStore) SaveToken(ctx context.Context, t *token.Token) error {
	scopes, err := json.Marshal(t.Scopes)
	if err != nil {
		return fmt.Errorf("encoding token scopes: %w", err)
	}

	if t.SessionID != "" {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM auth_tokens WHERE session_id = ?`, t.SessionID); err != nil {
			return fmt.Errorf("replacing session token: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (id, kind, session_id, uid, login_name, secret_hash, scopes, wiped, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Kind, t.SessionID, t.UID, t.LoginName, t.SecretHash, string(scopes), t.Wiped, t.CreatedAt, t.LastActivity)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// TokenBySession implements token.Store.
func (s *SQLiteStore) TokenBySession(ctx context.Context, sessionID string) (*token.Token, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, session_id, uid, login_name, secret_hash, scopes, wiped, created_at, last_activity
		FROM auth_tokens WHERE session_id = ?
	`, sessionID)

	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, token.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return t, nil
}

// UpdateToken implements token.Store.
func (s *SQLiteStore) UpdateToken(ctx context.Context, t *token.Token) error {
	scopes, err := json.Marshal(t.Scopes)
	if err != nil {
		return fmt.Errorf("encoding token scopes: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE auth_tokens SET scopes = ?, wiped = ?, last_activity = ? WHERE id = ?
	`, string(scopes), t.Wiped, t.LastActivity, t.ID)
	if err != nil {
		return fmt.Errorf("updating token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return token.ErrNotFound
	}
	return nil
}

// DeleteTokensForUser implements token.Store.
func (s *SQLiteStore) DeleteTokensForUser(ctx context.Context, uid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("deleting tokens: %w", err)
	}
	return nil
}

// CountTokens reports how many tokens of the given kind uid owns. Used by
// tests and the admin surface.
func (s *SQLiteStore) CountTokens(ctx context.Context, uid, kind string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_tokens WHERE uid = ? AND kind = ?`, uid, kind)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tokens: %w", err)
	}
	return n, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanToken(row scanner) (*token.Token, error) {
	var (
		t         token.Token
		sessionID sql.NullString
		scopes    string
	)
	err := row.Scan(&t.ID, &t.Kind, &sessionID, &t.UID, &t.LoginName, &t.SecretHash, &scopes, &t.Wiped, &t.CreatedAt, &t.LastActivity)
	if err != nil {
		return nil, err
	}
	t.SessionID = sessionID.String
	if err := json.Unmarshal([]byte(scopes), &t.Scopes); err != nil {
		return nil, fmt.Errorf("decoding token scopes: %w", err)
	}
	return &t, nil
}
