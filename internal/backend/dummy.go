// ABOUTME: In-memory dummy backend for tests and local development
// ABOUTME: Fully scriptable external-session assertion with optional secret and logout URL

package backend

import "context"

// Dummy is a scriptable backend implementing every optional capability.
// Tests flip its fields to simulate an SSO front layer.
type Dummy struct {
	Active    bool
	UID       string
	Secret    string
	HasSecret bool
	Logout    string
}

// NewDummy creates an inactive dummy backend.
func NewDummy() *Dummy {
	return &Dummy{}
}

// Name implements Backend.
func (d *Dummy) Name() string { return "dummy" }

// SessionActive implements External.
func (d *Dummy) SessionActive(context.Context) bool { return d.Active }

// CurrentUserID implements External.
func (d *Dummy) CurrentUserID(context.Context) string { return d.UID }

// CurrentUserSecret implements SecretProvider.
func (d *Dummy) CurrentUserSecret(context.Context) (string, bool) {
	return d.Secret, d.HasSecret
}

// LogoutURL implements CustomLogout. An empty URL means the capability is
// present but unset; callers treat that the same as absent.
func (d *Dummy) LogoutURL() string { return d.Logout }

// DummyConstructor returns a driver-table constructor for the dummy
// backend. An optional first argument pre-binds an asserted user id,
// which is handy for single-user development setups.
func DummyConstructor() Constructor {
	return func(args []string) (Backend, error) {
		d := NewDummy()
		if len(args) > 0 {
			d.UID = args[0]
			d.Active = true
		}
		return d, nil
	}
}
