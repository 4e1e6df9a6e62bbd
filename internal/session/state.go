// ABOUTME: Request-scoped session state accessor with incognito masking
// ABOUTME: Incognito always wins over any identity present in the session bag

package session

import (
	"context"
	"errors"

	"github.com/2389/fold-login/internal/user"
)

// State is the per-request view of the session principal. It wraps the
// transport session and the incognito flag. The flag is request-scoped by
// construction: each request gets its own State, so anonymous public-link
// handling on one request can never leak into another.
type State struct {
	sess      Session
	users     user.Directory
	groups    user.Groups
	incognito bool
}

// NewState creates a State over the given transport session.
func NewState(sess Session, users user.Directory, groups user.Groups) *State {
	return &State{sess: sess, users: users, groups: groups}
}

// Session exposes the underlying transport session.
func (s *State) Session() Session { return s.sess }

// CurrentUserID returns the session's bound user id, or "" when no user is
// bound or incognito is set. Incognito masks identity unconditionally.
func (s *State) CurrentUserID() string {
	if s.incognito {
		return ""
	}
	uid, _ := s.sess.Get(KeyUserID)
	return uid
}

// SetUserID binds the candidate id as the session user. When the id
// resolves to a full entity the richer identity is bound alongside it;
// otherwise the bare id is stored so bootstrap code can reference accounts
// that do not resolve yet.
func (s *State) SetUserID(ctx context.Context, uid string) {
	u, err := s.users.Get(ctx, uid)
	if err != nil || u == nil {
		s.sess.Set(KeyUserID, uid)
		return
	}
	s.sess.Set(KeyUserID, u.UID)
	s.sess.Set(KeyDisplayName, u.DisplayName)
}

// SetLoginName records the login name the user authenticated with.
func (s *State) SetLoginName(name string) {
	s.sess.Set(KeyLoginName, name)
}

// LoginName returns the recorded login name, or "".
func (s *State) LoginName() string {
	name, _ := s.sess.Get(KeyLoginName)
	return name
}

// Unbind removes the identity keys from the session.
func (s *State) Unbind() {
	s.sess.Delete(KeyUserID)
	s.sess.Delete(KeyLoginName)
	s.sess.Delete(KeyDisplayName)
}

// IsAdmin reports whether uid belongs to the admin group. While incognito
// is set this always reports false, even for a genuine admin: anonymous
// contexts must never expose admin-only behavior.
func (s *State) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if s.incognito {
		return false, nil
	}
	u, err := s.users.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.groups.IsAdmin(ctx, u.UID)
}

// SetIncognito sets the anonymous-access flag for this request.
func (s *State) SetIncognito(on bool) {
	s.incognito = on
}

// IsIncognito reports the anonymous-access flag.
func (s *State) IsIncognito() bool {
	return s.incognito
}
