package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/api/calendar/v3"

	"github.com/desertthunder/huddle/internal/shared"
)

const (
	// FakeAuthCode is the only authorization code the fake token endpoint accepts.
	FakeAuthCode = "good-code"
	// FakeRefreshToken is issued by the authorization code exchange.
	FakeRefreshToken = "refresh-1"
)

// FakeGoogle stands in for the Google OAuth token endpoint and the Calendar events API.
type FakeGoogle struct {
	Server *httptest.Server

	mu           sync.Mutex
	events       map[string]*calendar.Event
	order        []string
	nextID       int
	tokenCalls   int
	refreshCalls int
	eventCalls   int
	failEvents   string
	failRefresh  bool
	pageSize     int
	lastInsert   []byte
}

// NewFakeGoogle starts a fake server that is closed on cleanup.
func NewFakeGoogle(t *testing.T) *FakeGoogle {
	t.Helper()

	f := &FakeGoogle{events: map[string]*calendar.Event{}}

	r := mux.NewRouter()
	r.HandleFunc("/token", f.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/calendars/{calendarId}/events", f.handleList).Methods(http.MethodGet)
	r.HandleFunc("/calendars/{calendarId}/events", f.handleInsert).Methods(http.MethodPost)
	r.HandleFunc("/calendars/{calendarId}/events/{eventId}", f.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/calendars/{calendarId}/events/{eventId}", f.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/calendars/{calendarId}/events/{eventId}", f.handleDelete).Methods(http.MethodDelete)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// GoogleConfig returns client settings pointing at the fake server.
func (f *FakeGoogle) GoogleConfig() shared.GoogleConfig {
	return shared.GoogleConfig{
		ClientID:              "test-client-id",
		ClientSecret:          "test-client-secret",
		RedirectURI:           "http://localhost:8000/google/callback",
		AuthURL:               f.Server.URL + "/auth",
		TokenURL:              f.Server.URL + "/token",
		APIEndpoint:           f.Server.URL + "/",
		RequestTimeoutSeconds: 5,
	}
}

// FailEvents makes every events call answer 500 with msg; "" restores normal behaviour.
func (f *FakeGoogle) FailEvents(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failEvents = msg
}

// FailRefresh makes refresh token grants answer invalid_grant.
func (f *FakeGoogle) FailRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRefresh = true
}

// SetPageSize splits list responses into pages of n items.
func (f *FakeGoogle) SetPageSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = n
}

// AddEvent seeds an event and returns its id.
func (f *FakeGoogle) AddEvent(ev *calendar.Event) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store(ev)
}

// Event returns the stored event with id.
func (f *FakeGoogle) Event(id string) (*calendar.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	return ev, ok
}

// EventCount is the number of stored events.
func (f *FakeGoogle) EventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// LastInsertBody is the raw JSON of the most recent insert request.
func (f *FakeGoogle) LastInsertBody() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastInsert
}

// TokenCalls counts authorization code exchanges.
func (f *FakeGoogle) TokenCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

// RefreshCalls counts refresh token grants.
func (f *FakeGoogle) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

// EventCalls counts requests to the events API.
func (f *FakeGoogle) EventCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventCalls
}

// TotalCalls counts every request the fake received.
func (f *FakeGoogle) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls + f.refreshCalls + f.eventCalls
}

func (f *FakeGoogle) store(ev *calendar.Event) string {
	f.nextID++
	id := "evt-" + strconv.Itoa(f.nextID)
	ev.Id = id
	f.events[id] = ev
	f.order = append(f.order, id)
	return id
}

func (f *FakeGoogle) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.tokenCalls++
		if r.PostForm.Get("code") != FakeAuthCode {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Malformed auth code.",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "access-1",
			"token_type":    "Bearer",
			"refresh_token": FakeRefreshToken,
			"expires_in":    3600,
		})
	case "refresh_token":
		f.refreshCalls++
		if f.failRefresh || r.PostForm.Get("refresh_token") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		// Google omits refresh_token on refresh responses.
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": fmt.Sprintf("refreshed-%d", f.refreshCalls),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

// begin counts an events call and reports whether the handler should continue.
func (f *FakeGoogle) begin(w http.ResponseWriter) bool {
	f.eventCalls++
	if f.failEvents != "" {
		writeGoogleError(w, http.StatusInternalServerError, f.failEvents)
		return false
	}
	return true
}

func (f *FakeGoogle) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.begin(w) {
		return
	}

	q := r.URL.Query()
	minT, _ := time.Parse(time.RFC3339, q.Get("timeMin"))
	maxT, _ := time.Parse(time.RFC3339, q.Get("timeMax"))

	items := []*calendar.Event{}
	for _, id := range f.order {
		ev, ok := f.events[id]
		if !ok {
			continue
		}
		start, end := eventBounds(ev)
		if !minT.IsZero() && !end.After(minT) {
			continue
		}
		if !maxT.IsZero() && !start.Before(maxT) {
			continue
		}
		items = append(items, ev)
	}

	offset, _ := strconv.Atoi(q.Get("pageToken"))
	limit := len(items)
	if n, err := strconv.Atoi(q.Get("maxResults")); err == nil && n > 0 && n < limit {
		limit = n
	}
	if f.pageSize > 0 && f.pageSize < limit {
		limit = f.pageSize
	}

	resp := &calendar.Events{Kind: "calendar#events", Items: []*calendar.Event{}}
	if offset < len(items) {
		end := min(offset+limit, len(items))
		resp.Items = items[offset:end]
		if end < len(items) {
			resp.NextPageToken = strconv.Itoa(end)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeGoogle) handleInsert(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.begin(w) {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeGoogleError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.lastInsert = body

	var ev calendar.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		writeGoogleError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.store(&ev)
	writeJSON(w, http.StatusOK, &ev)
}

func (f *FakeGoogle) handleGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.begin(w) {
		return
	}

	ev, ok := f.events[mux.Vars(r)["eventId"]]
	if !ok {
		writeGoogleError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (f *FakeGoogle) handleUpdate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.begin(w) {
		return
	}

	id := mux.Vars(r)["eventId"]
	if _, ok := f.events[id]; !ok {
		writeGoogleError(w, http.StatusNotFound, "Not Found")
		return
	}

	var ev calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeGoogleError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev.Id = id
	f.events[id] = &ev
	writeJSON(w, http.StatusOK, &ev)
}

func (f *FakeGoogle) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.begin(w) {
		return
	}

	id := mux.Vars(r)["eventId"]
	if _, ok := f.events[id]; !ok {
		writeGoogleError(w, http.StatusNotFound, "Not Found")
		return
	}
	delete(f.events, id)
	w.WriteHeader(http.StatusNoContent)
}

func eventBounds(ev *calendar.Event) (time.Time, time.Time) {
	parse := func(dt *calendar.EventDateTime) time.Time {
		if dt == nil {
			return time.Time{}
		}
		if dt.DateTime != "" {
			t, _ := time.Parse(time.RFC3339, dt.DateTime)
			return t
		}
		t, _ := time.Parse(time.DateOnly, dt.Date)
		return t
	}
	return parse(ev.Start), parse(ev.End)
}

func writeGoogleError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
