// ABOUTME: User entity and lookup interfaces consumed by the login subsystem
// ABOUTME: Concrete directories live elsewhere (internal/store provides the SQLite one)

package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested user does not exist
var ErrNotFound = errors.New("user not found")

// User represents a resolved account entity.
type User struct {
	UID         string
	DisplayName string
	Enabled     bool
	Backend     string // name of the backend that owns this account
	Home        string
}

// Directory resolves user ids to full account entities.
type Directory interface {
	Get(ctx context.Context, uid string) (*User, error)
}

// Groups answers group-membership questions for resolved users.
type Groups interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
}
