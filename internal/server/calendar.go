package server

import (
	"net/http"
	"time"

	"github.com/desertthunder/huddle/internal/shared"
)

const defaultEventWindow = 30 * 24 * time.Hour

func (a *API) calendarEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	verr := shared.NewValidationError()

	start := a.deps.Now()
	if v := q.Get("start_date"); v != "" {
		start = parseField(verr, "start_date", v, a.deps.Location)
	}
	end := start.Add(defaultEventWindow)
	if v := q.Get("end_date"); v != "" {
		end = parseField(verr, "end_date", v, a.deps.Location)
	}
	if verr.Empty() && !end.After(start) {
		verr.Add("end_date", "The end_date field must be a date after start_date.")
	}
	if err := verr.OrNil(); err != nil {
		a.writeError(w, r, "", err)
		return
	}

	events, err := a.deps.Events.GetEvents(r.Context(), user, start, end)
	if err != nil {
		a.writeError(w, r, "Failed to fetch events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (a *API) calendarAvailability(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := availabilityRequest{StartTime: q.Get("start_time"), EndTime: q.Get("end_time")}
	start, end, err := req.window(a.deps.Location)
	if err != nil {
		a.writeError(w, r, "", err)
		return
	}

	available, err := a.deps.Events.CheckAvailability(r.Context(), user, start, end)
	if err != nil {
		a.writeError(w, r, "Failed to check availability", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}
