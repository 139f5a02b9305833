// package services integrates with Google Calendar
//
// CalendarLink owns the OAuth2 credential, SyncBridge the events API.
package services

import (
	"context"
	"time"

	"github.com/desertthunder/huddle/internal/models"
	"google.golang.org/api/calendar/v3"
)

// primaryCalendar is the calendar id Google resolves to the user's own calendar.
const primaryCalendar = "primary"

// UserStore persists the credential on the user record.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateCalendarToken(ctx context.Context, user *models.User, blob string) error
}

// ClientSource resolves an authenticated Calendar client for a user.
type ClientSource interface {
	ActiveClient(ctx context.Context, user *models.User) (*calendar.Service, error)
}

// Calendar mirrors meetings to a user's provider calendar and answers read queries.
//
// Every method resolves the user's credential first and returns its errors unchanged;
// provider failures wrap [shared.ErrProvider].
type Calendar interface {
	// CreateEvent inserts meeting into the primary calendar and returns the provider event id.
	CreateEvent(ctx context.Context, user *models.User, meeting *models.Meeting) (string, error)

	// UpdateEvent overwrites the linked event with the meeting's fields.
	// The meeting must already carry an external event id.
	UpdateEvent(ctx context.Context, user *models.User, meeting *models.Meeting) error

	// DeleteEvent removes eventID from the primary calendar.
	DeleteEvent(ctx context.Context, user *models.User, eventID string) error

	// GetEvents lists events between start and end ordered by start time, recurring events expanded.
	GetEvents(ctx context.Context, user *models.User, start, end time.Time) ([]models.CalendarEvent, error)

	// CheckAvailability reports whether no event overlaps the window.
	CheckAvailability(ctx context.Context, user *models.User, start, end time.Time) (bool, error)
}
