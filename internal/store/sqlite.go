// ABOUTME: SQLite persistence for users, admin group membership and tokens
// ABOUTME: Uses modernc.org/sqlite with automatic schema creation and WAL mode

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/2389/fold-login/internal/user"
)

// SQLiteStore backs the user directory, the admin group and the token
// store with a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			uid TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 1,
			backend TEXT NOT NULL DEFAULT 'database',
			home TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS admin_members (
			uid TEXT PRIMARY KEY,
			FOREIGN KEY (uid) REFERENCES users(uid)
		);

		CREATE TABLE IF NOT EXISTS auth_tokens (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			session_id TEXT,
			uid TEXT NOT NULL,
			login_name TEXT NOT NULL,
			secret_hash TEXT NOT NULL DEFAULT '',
			scopes TEXT NOT NULL DEFAULT '{}',
			wiped INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			last_activity DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_auth_tokens_session
			ON auth_tokens(session_id) WHERE session_id IS NOT NULL AND session_id != '';

		CREATE INDEX IF NOT EXISTS idx_auth_tokens_uid
			ON auth_tokens(uid);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser inserts a user row.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *user.User) error {
	if u.Backend == "" {
		u.Backend = "database"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (uid, display_name, enabled, backend, home, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.UID, u.DisplayName, u.Enabled, u.Backend, u.Home, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// Get implements user.Directory.
func (s *SQLiteStore) Get(ctx context.Context, uid string) (*user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uid, display_name, enabled, backend, home FROM users WHERE uid = ?
	`, uid)

	var u user.User
	err := row.Scan(&u.UID, &u.DisplayName, &u.Enabled, &u.Backend, &u.Home)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by uid.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, display_name, enabled, backend, home FROM users ORDER BY uid
	`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.UID, &u.DisplayName, &u.Enabled, &u.Backend, &u.Home); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// SetEnabled flips a user's administrative enabled flag.
func (s *SQLiteStore) SetEnabled(ctx context.Context, uid string, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET enabled = ? WHERE uid = ?`, enabled, uid)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

// SetAdmin adds or removes uid from the admin group.
func (s *SQLiteStore) SetAdmin(ctx context.Context, uid string, admin bool) error {
	if admin {
		_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO admin_members (uid) VALUES (?)`, uid)
		if err != nil {
			return fmt.Errorf("adding admin member: %w", err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_members WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("removing admin member: %w", err)
	}
	return nil
}

// IsAdmin implements user.Groups.
func (s *SQLiteStore) IsAdmin(ctx context.Context, uid string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_members WHERE uid = ?`, uid)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("checking admin membership: %w", err)
	}
	return n > 0, nil
}
