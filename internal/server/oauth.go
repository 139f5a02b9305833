package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
)

// OAuthCallbackHandler completes the Google consent flow.
//
// The route is public: the state parameter names the user that started the flow.
// Implements the Handler interface for registration with a Router.
type OAuthCallbackHandler struct {
	link        CalendarLinker
	frontendURL string
	logger      *log.Logger
}

// NewOAuthCallbackHandler creates a handler redirecting to frontendURL once the code is exchanged.
func NewOAuthCallbackHandler(link CalendarLinker, frontendURL string, logger *log.Logger) *OAuthCallbackHandler {
	return &OAuthCallbackHandler{
		link:        link,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthCallbackHandler) Routes() []string {
	return []string{"/google/callback"}
}

// ServeHTTP exchanges the authorization code and redirects to the frontend with the outcome.
//
// A missing code is answered directly with 400 since there is nothing to report back.
func (h *OAuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		if reason := r.URL.Query().Get("error"); reason != "" {
			h.logger.Warn("authorization denied", "state", state, "reason", reason)
		}
		writeJSON(w, http.StatusBadRequest, errorBody("Authorization code not provided"))
		return
	}

	if _, err := h.link.HandleCallback(context.WithoutCancel(r.Context()), code, state); err != nil {
		h.logger.Warn("calendar callback failed", "state", state, "err", err)
		http.Redirect(w, r, h.frontendURL+"/calendar/connected?success=false&error="+url.QueryEscape(err.Error()), http.StatusFound)
		return
	}

	http.Redirect(w, r, h.frontendURL+"/calendar/connected?success=true", http.StatusFound)
}
