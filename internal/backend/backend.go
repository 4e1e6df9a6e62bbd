// ABOUTME: Capability interfaces for pluggable authentication backends
// ABOUTME: External session assertion, secret supply and custom logout are optional capabilities

package backend

import (
	"context"
	"fmt"
)

// Backend is the minimal contract every authentication backend fulfills.
// Additional capabilities are discovered by type assertion, mirroring the
// optional-interface style used elsewhere in the codebase.
type Backend interface {
	Name() string
}

// External is a backend whose authentication happens outside this process,
// asserted by a trusted front layer (reverse proxy, SSO module).
type External interface {
	Backend

	// SessionActive reports whether the front layer vouches for an
	// authenticated session on the current request.
	SessionActive(ctx context.Context) bool

	// CurrentUserID returns the asserted user id, or "" when none.
	CurrentUserID(ctx context.Context) string
}

// SecretProvider is an optional capability of External backends that can
// hand over the user's credential (e.g. a proxy-forwarded password).
type SecretProvider interface {
	// CurrentUserSecret returns the credential and true, or false when the
	// backend cannot supply one.
	CurrentUserSecret(ctx context.Context) (string, bool)
}

// CustomLogout is an optional capability for backends that own the logout
// flow (SSO portals with their own sign-out page).
type CustomLogout interface {
	LogoutURL() string
}

// ConfigurationError indicates a backend name or driver that cannot be
// resolved. It degrades the backend set, it never aborts startup.
type ConfigurationError struct {
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown user backend %q", e.Name)
}
