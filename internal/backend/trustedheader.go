// ABOUTME: Trusted-header SSO backend driven by reverse-proxy assertions
// ABOUTME: Reads the proxy-asserted identity from request context, never from the wire directly

package backend

import "context"

// Assertion carries the identity a trusted front layer asserted for the
// current request. The HTTP layer extracts it from headers and stashes it
// in the request context; this package never touches net/http.
type Assertion struct {
	UID       string
	Secret    string
	HasSecret bool
}

type assertionKey struct{}

// WithAssertion returns a context carrying a proxy assertion.
func WithAssertion(ctx context.Context, a Assertion) context.Context {
	return context.WithValue(ctx, assertionKey{}, a)
}

// AssertionFromContext retrieves the proxy assertion, if any.
func AssertionFromContext(ctx context.Context) (Assertion, bool) {
	a, ok := ctx.Value(assertionKey{}).(Assertion)
	return a, ok
}

// TrustedHeader is the Apache-style SSO backend: a reverse proxy in front
// of the server authenticates the user and forwards the identity.
type TrustedHeader struct {
	logoutURL string
}

// NewTrustedHeader creates a trusted-header backend. logoutURL may be
// empty when the proxy has no custom sign-out page.
func NewTrustedHeader(logoutURL string) *TrustedHeader {
	return &TrustedHeader{logoutURL: logoutURL}
}

// Name implements Backend.
func (t *TrustedHeader) Name() string { return "trustedheader" }

// SessionActive implements External.
func (t *TrustedHeader) SessionActive(ctx context.Context) bool {
	a, ok := AssertionFromContext(ctx)
	return ok && a.UID != ""
}

// CurrentUserID implements External.
func (t *TrustedHeader) CurrentUserID(ctx context.Context) string {
	a, _ := AssertionFromContext(ctx)
	return a.UID
}

// CurrentUserSecret implements SecretProvider.
func (t *TrustedHeader) CurrentUserSecret(ctx context.Context) (string, bool) {
	a, ok := AssertionFromContext(ctx)
	if !ok || !a.HasSecret {
		return "", false
	}
	return a.Secret, true
}

// LogoutURL implements CustomLogout.
func (t *TrustedHeader) LogoutURL() string { return t.logoutURL }

// TrustedHeaderConstructor returns a driver-table constructor. An optional
// first argument sets the proxy's custom logout URL.
func TrustedHeaderConstructor() Constructor {
	return func(args []string) (Backend, error) {
		logout := ""
		if len(args) > 0 {
			logout = args[0]
		}
		return NewTrustedHeader(logout), nil
	}
}
