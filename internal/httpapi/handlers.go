// ABOUTME: HTTP handlers for session-state queries and logout
// ABOUTME: Thin JSON layer over the login controller and session state

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/2389/fold-login/internal/login"
	"github.com/2389/fold-login/internal/session"
)

// API serves the session-state endpoints.
type API struct {
	controller *login.Controller
	sessions   *session.Registry
	logger     *slog.Logger
}

// NewAPI creates the handler set.
func NewAPI(controller *login.Controller, sessions *session.Registry, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default().With("component", "httpapi")
	}
	return &API{controller: controller, sessions: sessions, logger: logger}
}

// Routes registers the API endpoints on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /api/whoami", a.handleWhoami)
	mux.HandleFunc("GET /api/logout-url", a.handleLogoutURL)
	mux.HandleFunc("POST /api/logout", a.handleLogout)
}

// RouteTable implements the login package's Routes contract for the
// handful of routes the core needs to point at.
type RouteTable struct{}

// RouteURL maps route names to their paths.
func (RouteTable) RouteURL(name string) string {
	switch name {
	case "logout":
		return "/api/logout"
	default:
		return "/"
	}
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWhoami reports the current session identity. Incognito requests
// always see an anonymous answer.
func (a *API) handleWhoami(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())

	uid := st.CurrentUserID()
	if uid == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	admin, err := st.IsAdmin(r.Context(), uid)
	if err != nil {
		a.logger.Error("admin check failed", "uid", uid, "error", err)
		http.Error(w, `{"error":"lookup failed"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"uid":           uid,
		"login_name":    st.LoginName(),
		"admin":         admin,
	})
}

func (a *API) handleLogoutURL(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"logout_url": a.controller.LogoutURL(r.Context(), st),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())
	a.controller.Logout(r.Context(), st)
	a.sessions.Remove(st.Session().ID())

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
