package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/huddle/internal/shared"
	"github.com/mcnijman/go-emailaddress"
)

// MaxTitleLength bounds [Meeting.Title] in characters.
const MaxTitleLength = 255

var _ Model = (*Meeting)(nil)

// Meeting is a scheduled meeting owned by exactly one user.
//
// externalEventID is empty until the meeting has been mirrored to the owner's calendar.
type Meeting struct {
	base
	userID          string
	title           string
	description     string
	startTime       time.Time
	endTime         time.Time
	attendees       []string
	externalEventID string
}

// NewMeeting creates a [Meeting] owned by userID. Times are stored in UTC.
func NewMeeting(sequence int, userID, title string, start, end time.Time) *Meeting {
	return &Meeting{
		base:      newBase(sequence),
		userID:    userID,
		title:     strings.TrimSpace(title),
		startTime: start.UTC(),
		endTime:   end.UTC(),
		attendees: []string{},
	}
}

func (m *Meeting) UserID() string          { return m.userID }
func (m *Meeting) Title() string           { return m.title }
func (m *Meeting) Description() string     { return m.description }
func (m *Meeting) StartTime() time.Time    { return m.startTime }
func (m *Meeting) EndTime() time.Time      { return m.endTime }
func (m *Meeting) ExternalEventID() string { return m.externalEventID }

// Attendees returns a copy of the attendee addresses.
func (m *Meeting) Attendees() []string {
	out := make([]string, len(m.attendees))
	copy(out, m.attendees)
	return out
}

// Synced reports whether the meeting is linked to a provider event.
func (m *Meeting) Synced() bool { return m.externalEventID != "" }

// Duration is the length of the meeting.
func (m *Meeting) Duration() time.Duration { return m.endTime.Sub(m.startTime) }

func (m *Meeting) SetUserID(id string)          { m.userID = id }
func (m *Meeting) SetTitle(title string)        { m.title = strings.TrimSpace(title) }
func (m *Meeting) SetDescription(desc string)   { m.description = desc }
func (m *Meeting) SetStartTime(start time.Time) { m.startTime = start.UTC() }
func (m *Meeting) SetEndTime(end time.Time)     { m.endTime = end.UTC() }

// SetAttendees replaces the attendee list, trimming blanks and dropping
// case-insensitive duplicates. Addresses are validated by [Meeting.Validate].
func (m *Meeting) SetAttendees(emails []string) {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	m.attendees = out
}

// SetExternalEventID links the meeting to a provider event.
//
// An existing link is never replaced with an empty id.
func (m *Meeting) SetExternalEventID(id string) {
	if id == "" {
		return
	}
	m.externalEventID = id
}

// Validate reports every invalid field at once.
func (m *Meeting) Validate() error {
	verr := shared.NewValidationError()

	if m.userID == "" {
		verr.Add("user_id", "owner is required")
	}

	switch {
	case m.title == "":
		verr.Add("title", "title is required")
	case utf8.RuneCountInString(m.title) > MaxTitleLength:
		verr.Add("title", "title must be at most 255 characters")
	}

	if m.startTime.IsZero() {
		verr.Add("start_time", "start time is required")
	}
	if m.endTime.IsZero() {
		verr.Add("end_time", "end time is required")
	} else if !m.endTime.After(m.startTime) {
		verr.Add("end_time", "end time must be after start time")
	}

	for _, a := range m.attendees {
		if _, err := emailaddress.Parse(a); err != nil {
			verr.Add("attendees", a+" is not a valid email address")
		}
	}

	return verr.OrNil()
}

type meetingJSON struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Attendees       []string  `json:"attendees"`
	ExternalEventID *string   `json:"external_event_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MarshalJSON renders the meeting in the API's snake_case shape.
// external_event_id is null until synced.
func (m *Meeting) MarshalJSON() ([]byte, error) {
	out := meetingJSON{
		ID:          m.id,
		UserID:      m.userID,
		Title:       m.title,
		Description: m.description,
		StartTime:   m.startTime,
		EndTime:     m.endTime,
		Attendees:   m.Attendees(),
		CreatedAt:   m.createdAt,
		UpdatedAt:   m.updatedAt,
	}
	if m.externalEventID != "" {
		id := m.externalEventID
		out.ExternalEventID = &id
	}
	return json.Marshal(out)
}
