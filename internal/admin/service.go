// ABOUTME: Administrative HTTP handlers for user and token management
// ABOUTME: Every endpoint is gated on the session user's admin group membership

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/2389/fold-login/internal/session"
	"github.com/2389/fold-login/internal/user"
)

// UserStore is the account persistence the admin surface needs.
type UserStore interface {
	Get(ctx context.Context, uid string) (*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	SetEnabled(ctx context.Context, uid string, enabled bool) error
	SetAdmin(ctx context.Context, uid string, admin bool) error
}

// TokenInvalidator revokes all tokens a user owns.
type TokenInvalidator interface {
	InvalidateForUser(ctx context.Context, uid string) error
}

// Service exposes account administration over HTTP.
type Service struct {
	store  UserStore
	tokens TokenInvalidator
	logger *slog.Logger
}

// NewService creates the admin handler set.
func NewService(store UserStore, tokens TokenInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default().With("component", "admin")
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Routes registers the admin endpoints on mux.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/users", s.requireAdmin(s.handleListUsers))
	mux.HandleFunc("POST /api/admin/users", s.requireAdmin(s.handleCreateUser))
	mux.HandleFunc("POST /api/admin/users/{uid}/enable", s.requireAdmin(s.setEnabled(true)))
	mux.HandleFunc("POST /api/admin/users/{uid}/disable", s.requireAdmin(s.setEnabled(false)))
	mux.HandleFunc("POST /api/admin/users/{uid}/group", s.requireAdmin(s.setAdmin(true)))
	mux.HandleFunc("DELETE /api/admin/users/{uid}/group", s.requireAdmin(s.setAdmin(false)))
	mux.HandleFunc("DELETE /api/admin/users/{uid}/tokens", s.requireAdmin(s.handleRevokeTokens))
}

// requireAdmin rejects requests whose session user is not an admin. The
// admin check goes through the session state, so incognito requests are
// always refused regardless of group membership.
func (s *Service) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := session.MustFromContext(r.Context())

		uid := st.CurrentUserID()
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		admin, err := st.IsAdmin(r.Context(), uid)
		if err != nil {
			s.logger.Error("admin check failed", "uid", uid, "error", err)
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		if !admin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("listing users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing users failed")
		return
	}
	if users == nil {
		users = []*user.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Service) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID         string `json:"uid"`
		DisplayName string `json:"display_name"`
		Admin       bool   `json:"admin"`
		Disabled    bool   `json:"disabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UID == "" {
		writeError(w, http.StatusBadRequest, "uid required")
		return
	}

	u := &user.User{
		UID:         req.UID,
		DisplayName: req.DisplayName,
		Enabled:     !req.Disabled,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		s.logger.Error("creating user failed", "uid", req.UID, "error", err)
		writeError(w, http.StatusConflict, "creating user failed")
		return
	}
	if req.Admin {
		if err := s.store.SetAdmin(r.Context(), req.UID, true); err != nil {
			s.logger.Error("granting admin failed", "uid", req.UID, "error", err)
			writeError(w, http.StatusInternalServerError, "granting admin failed")
			return
		}
	}

	s.logger.Info("user created", "uid", req.UID, "admin", req.Admin)
	writeJSON(w, http.StatusCreated, u)
}

// setEnabled returns a handler flipping the account flag. Disabling also
// revokes the user's tokens so open sessions cannot outlive the account.
func (s *Service) setEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")

		if err := s.store.SetEnabled(r.Context(), uid, enabled); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			s.logger.Error("updating user failed", "uid", uid, "error", err)
			writeError(w, http.StatusInternalServerError, "updating user failed")
			return
		}

		if !enabled {
			if err := s.tokens.InvalidateForUser(r.Context(), uid); err != nil {
				s.logger.Error("token revocation failed", "uid", uid, "error", err)
			}
		}

		s.logger.Info("user enabled flag changed", "uid", uid, "enabled", enabled)
		writeJSON(w, http.StatusOK, map[string]any{"uid": uid, "enabled": enabled})
	}
}

func (s *Service) setAdmin(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")

		if _, err := s.store.Get(r.Context(), uid); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			s.logger.Error("resolving user failed", "uid", uid, "error", err)
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}

		if err := s.store.SetAdmin(r.Context(), uid, admin); err != nil {
			s.logger.Error("updating admin group failed", "uid", uid, "error", err)
			writeError(w, http.StatusInternalServerError, "updating admin group failed")
			return
		}

		s.logger.Info("admin group changed", "uid", uid, "admin", admin)
		writeJSON(w, http.StatusOK, map[string]any{"uid": uid, "admin": admin})
	}
}

func (s *Service) handleRevokeTokens(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")

	if err := s.tokens.InvalidateForUser(r.Context(), uid); err != nil {
		s.logger.Error("token revocation failed", "uid", uid, "error", err)
		writeError(w, http.StatusInternalServerError, "token revocation failed")
		return
	}

	s.logger.Info("tokens revoked", "uid", uid)
	writeJSON(w, http.StatusOK, map[string]string{"uid": uid})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
