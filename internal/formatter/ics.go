package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/desertthunder/huddle/internal/models"
)

const (
	productID   = "-//desertthunder//huddle//EN"
	uidDomain   = "huddle"
	propEventID = ics.ComponentProperty("X-HUDDLE-EVENT-ID")
)

// ExportToICS renders meetings as an iCalendar feed, one VEVENT per meeting.
func ExportToICS(name string, meetings []*models.Meeting) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteICS(&buf, name, meetings); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteICS streams the iCalendar feed of meetings to w.
//
// The UID is derived from the meeting id so re-importing the feed elsewhere updates instead of duplicating.
func WriteICS(w io.Writer, name string, meetings []*models.Meeting) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	for _, m := range meetings {
		event := cal.AddEvent(fmt.Sprintf("%s@%s", m.ID(), uidDomain))
		event.SetDtStampTime(m.UpdatedAt())
		event.SetCreatedTime(m.CreatedAt())
		event.SetModifiedAt(m.UpdatedAt())
		event.SetStartAt(m.StartTime())
		event.SetEndAt(m.EndTime())
		event.SetSummary(m.Title())
		if m.Description() != "" {
			event.SetDescription(m.Description())
		}
		for _, email := range m.Attendees() {
			event.AddAttendee(email, ics.CalendarUserTypeIndividual, ics.ParticipationStatusNeedsAction, ics.WithRSVP(true))
		}
		if m.Synced() {
			event.SetProperty(propEventID, m.ExternalEventID())
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// ImportedMeeting is a VEVENT read from an iCalendar file.
type ImportedMeeting struct {
	UID         string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Attendees   []string
}

// ParseICS reads the timed events of an iCalendar file.
//
// All-day events and events without a start are skipped; a missing end means thirty minutes.
func ParseICS(r io.Reader) ([]ImportedMeeting, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	meetings := []ImportedMeeting{}
	for _, ev := range cal.Events() {
		dtStart := ev.GetProperty(ics.ComponentPropertyDtStart)
		if dtStart == nil || !strings.Contains(dtStart.Value, "T") {
			continue
		}

		start, err := ev.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ev.GetEndAt()
		if err != nil || !end.After(start) {
			end = start.Add(30 * time.Minute)
		}

		m := ImportedMeeting{
			StartTime: start,
			EndTime:   end,
			Attendees: []string{},
		}
		if p := ev.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
			m.UID = p.Value
		}
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			m.Title = p.Value
		}
		if p := ev.GetProperty(ics.ComponentPropertyDescription); p != nil {
			m.Description = p.Value
		}
		for _, a := range ev.Attendees() {
			if email := a.Email(); email != "" {
				m.Attendees = append(m.Attendees, email)
			}
		}
		meetings = append(meetings, m)
	}

	return meetings, nil
}
