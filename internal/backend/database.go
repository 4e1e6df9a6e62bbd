// ABOUTME: Database-backed authentication backend
// ABOUTME: Thin wrapper over a user.Directory; the default backend registered at setup

package backend

import (
	"github.com/2389/fold-login/internal/user"
)

// Database is the canonical store-backed backend. Authentication against it
// happens in the credential layer; within this subsystem it exists so the
// registry has a default owner for locally-provisioned accounts.
type Database struct {
	users user.Directory
}

// NewDatabase creates a database backend over the given directory.
func NewDatabase(users user.Directory) *Database {
	return &Database{users: users}
}

// Name implements Backend.
func (d *Database) Name() string { return "database" }

// Users exposes the directory that owns this backend's accounts.
func (d *Database) Users() user.Directory { return d.users }

// DatabaseConstructor returns a driver-table constructor bound to the
// given directory. The declared argument list is ignored: the database
// backend takes its dependencies from the server, not from config.
func DatabaseConstructor(users user.Directory) Constructor {
	return func(_ []string) (Backend, error) {
		return NewDatabase(users), nil
	}
}
