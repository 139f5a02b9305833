package server

import (
	"errors"
	"net/http"

	"github.com/desertthunder/huddle/internal/shared"
)

func (a *API) listMeetings(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	filter, err := meetingFilter(r, a.deps.Location)
	if err != nil {
		a.writeError(w, r, "", err)
		return
	}
	filter.Now = a.deps.Now()

	meetings, err := a.deps.Meetings.List(r.Context(), user, filter)
	if err != nil {
		a.writeError(w, r, "Failed to list meetings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meetings": meetings})
}

func (a *API) createMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	var req createMeetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, "", err)
		return
	}

	in, err := req.input(a.deps.Location)
	if err != nil {
		a.writeError(w, r, "", err)
		return
	}

	res, err := a.deps.Meetings.Create(r.Context(), user, in, req.SyncToCalendar)
	if err != nil {
		a.writeError(w, r, "Failed to create meeting", err)
		return
	}

	body := map[string]any{"meeting": res.Meeting}
	if res.CalendarError != "" {
		body["calendar_error"] = "Failed to sync with Google Calendar: " + res.CalendarError
	}
	writeJSON(w, http.StatusCreated, body)
}

func (a *API) showMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	meeting, err := a.deps.Meetings.Get(r.Context(), user, PathValue(r, "id"))
	if err != nil {
		a.writeError(w, r, "Failed to load meeting", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meeting": meeting})
}

func (a *API) updateMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	var req updateMeetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, "", err)
		return
	}

	patch, err := req.patch(a.deps.Location)
	if err != nil {
		a.writeError(w, r, "", err)
		return
	}

	res, err := a.deps.Meetings.Update(r.Context(), user, PathValue(r, "id"), patch)
	if err != nil {
		a.writeError(w, r, "Failed to update meeting", err)
		return
	}

	body := map[string]any{"meeting": res.Meeting}
	if res.CalendarError != "" {
		body["calendar_error"] = "Failed to update Google Calendar: " + res.CalendarError
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	if err := a.deps.Meetings.Delete(r.Context(), user, PathValue(r, "id")); err != nil {
		a.writeError(w, r, "Failed to delete meeting", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Meeting deleted successfully"})
}

func (a *API) syncMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := a.owner(w, r)
	if !ok {
		return
	}

	meeting, err := a.deps.Meetings.SyncToCalendar(r.Context(), user, PathValue(r, "id"))
	switch {
	case errors.Is(err, shared.ErrAlreadySynced):
		writeJSON(w, http.StatusBadRequest, errorBody("Meeting already synced to calendar"))
		return
	case err != nil:
		a.writeError(w, r, "Failed to sync with Google Calendar", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Meeting synced to Google Calendar",
		"meeting": meeting,
	})
}
