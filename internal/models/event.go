package models

import "time"

// CalendarEvent is the normalised read projection of a provider event.
//
// Start and End hold the provider timestamp, or the all-day date when the event has none.
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"all_day"`
}

// Scope selects meetings relative to now.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeUpcoming Scope = "upcoming"
	ScopePast     Scope = "past"
)

// ParseScope maps a query value to a [Scope], reporting false for unknown values.
// The empty string is [ScopeAll].
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case "", ScopeAll:
		return ScopeAll, true
	case ScopeUpcoming:
		return ScopeUpcoming, true
	case ScopePast:
		return ScopePast, true
	default:
		return "", false
	}
}

// MeetingFilter narrows a meeting listing.
type MeetingFilter struct {
	Scope Scope
	From  *time.Time // From includes meetings starting at or after this instant
	To    *time.Time // To includes meetings starting before this instant
	Now   time.Time  // Now is the reference point for Scope, zero means time.Now
}
