package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
)

// API holds the JSON handlers of the scheduling service.
type API struct {
	deps   Deps
	logger *log.Logger
}

// NewAPI builds the handler tree: public health and OAuth callback routes, everything else behind bearer auth.
func NewAPI(deps Deps) http.Handler {
	deps.defaults()
	a := &API{deps: deps, logger: shared.WithLogger(deps.Logger, "component", "api")}

	r := NewBasicRouter()
	r.Use(Recoverer(a.logger), RequestLogger(a.logger))

	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handler(NewOAuthCallbackHandler(deps.Link, deps.FrontendURL, a.logger))

	auth := Authenticate(deps.Users, a.logger)
	protected := func(method, path string, h http.HandlerFunc) {
		r.Handle(method, path, auth(h))
	}

	protected(http.MethodGet, "/google/auth", a.googleAuth)
	protected(http.MethodGet, "/google/status", a.googleStatus)
	protected(http.MethodPost, "/google/disconnect", a.googleDisconnect)

	protected(http.MethodGet, "/meetings", a.listMeetings)
	protected(http.MethodPost, "/meetings", a.createMeeting)
	protected(http.MethodGet, "/meetings/{id}", a.showMeeting)
	protected(http.MethodPut, "/meetings/{id}", a.updateMeeting)
	protected(http.MethodDelete, "/meetings/{id}", a.deleteMeeting)
	protected(http.MethodPost, "/meetings/{id}/sync", a.syncMeeting)

	protected(http.MethodGet, "/calendar/events", a.calendarEvents)
	protected(http.MethodGet, "/calendar/availability", a.calendarAvailability)

	return r
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// owner returns the authenticated user; routes without [Authenticate] never call it.
func (a *API) owner(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("Unauthenticated"))
	}
	return user, ok
}

func (a *API) googleAuth(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	url, err := a.deps.Link.AuthURL(r.Context(), user.ID())
	if err != nil {
		a.writeError(w, r, "Failed to build authorization URL", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": url})
}

func (a *API) googleStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": a.deps.Link.Connected(user)})
}

func (a *API) googleDisconnect(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	if err := a.deps.Link.Disconnect(r.Context(), user); err != nil {
		a.writeError(w, r, "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Google Calendar disconnected successfully"})
}
