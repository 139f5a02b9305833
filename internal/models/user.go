package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/huddle/internal/shared"
	"github.com/mcnijman/go-emailaddress"
)

var _ Model = (*User)(nil)

// User owns meetings and holds at most one calendar credential.
//
// The credential is the provider token JSON stored verbatim; empty means not connected.
type User struct {
	base
	email         string
	name          string
	apiToken      string
	calendarToken string
}

// NewUser creates a [User] with timestamps set to now.
func NewUser(sequence int, email, name string) *User {
	return &User{
		base:  newBase(sequence),
		email: strings.TrimSpace(email),
		name:  strings.TrimSpace(name),
	}
}

func (u *User) Email() string    { return u.email }
func (u *User) Name() string     { return u.name }
func (u *User) APIToken() string { return u.apiToken }

// CalendarToken returns the stored provider token blob, "" when not connected.
func (u *User) CalendarToken() string { return u.calendarToken }

// CalendarConnected reports whether a credential is stored.
func (u *User) CalendarConnected() bool { return u.calendarToken != "" }

func (u *User) SetEmail(email string)    { u.email = strings.TrimSpace(email) }
func (u *User) SetName(name string)      { u.name = strings.TrimSpace(name) }
func (u *User) SetAPIToken(token string) { u.apiToken = token }

// SetCalendarToken stores the provider token blob.
func (u *User) SetCalendarToken(blob string) { u.calendarToken = blob }

// ClearCalendarToken forgets the stored credential.
func (u *User) ClearCalendarToken() { u.calendarToken = "" }

// Validate checks the email address.
func (u *User) Validate() error {
	verr := shared.NewValidationError()
	if u.email == "" {
		verr.Add("email", "email is required")
	} else if _, err := emailaddress.Parse(u.email); err != nil {
		verr.Add("email", fmt.Sprintf("%q is not a valid email address", u.email))
	}
	return verr.OrNil()
}

type userJSON struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	CalendarConnected bool      `json:"calendar_connected"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MarshalJSON omits the API token and the credential blob.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		ID:                u.id,
		Email:             u.email,
		Name:              u.name,
		CalendarConnected: u.CalendarConnected(),
		CreatedAt:         u.createdAt,
		UpdatedAt:         u.updatedAt,
	})
}
