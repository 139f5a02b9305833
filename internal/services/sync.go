package services

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
)

const defaultRequestTimeout = 15 * time.Second

// Reminder overrides attached to every created event.
var eventReminders = []*calendar.EventReminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 10},
}

var _ Calendar = (*SyncBridge)(nil)

// SyncBridge translates meetings into Google Calendar events.
type SyncBridge struct {
	clients ClientSource
	loc     *time.Location
	timeout time.Duration
	logger  *log.Logger
}

// NewSyncBridge creates a [SyncBridge]. Event times are sent in loc (UTC when nil);
// each provider call, credential resolution included, is bounded by timeout.
func NewSyncBridge(clients ClientSource, loc *time.Location, timeout time.Duration, logger *log.Logger) *SyncBridge {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncBridge{
		clients: clients,
		loc:     loc,
		timeout: timeout,
		logger:  shared.WithLogger(logger, "component", "sync-bridge"),
	}
}

// CreateEvent inserts meeting into the user's primary calendar and returns the event id.
//
// Persisting the id onto the meeting is the caller's job.
func (b *SyncBridge) CreateEvent(ctx context.Context, user *models.User, meeting *models.Meeting) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	srv, err := b.clients.ActiveClient(ctx, user)
	if err != nil {
		return "", err
	}

	event := &calendar.Event{
		Summary:     meeting.Title(),
		Description: meeting.Description(),
		Start:       b.eventTime(meeting.StartTime()),
		End:         b.eventTime(meeting.EndTime()),
		Attendees:   eventAttendees(meeting.Attendees()),
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       eventReminders,
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := srv.Events.Insert(primaryCalendar, event).Context(ctx).Do()
	if err != nil {
		return "", providerError("create event", err)
	}

	b.logger.Debug("created calendar event", "meeting", meeting.ID(), "event", created.Id)
	return created.Id, nil
}

// UpdateEvent overwrites summary, description and times of the linked event.
//
// Attendees are replaced only when the meeting has any.
func (b *SyncBridge) UpdateEvent(ctx context.Context, user *models.User, meeting *models.Meeting) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	srv, err := b.clients.ActiveClient(ctx, user)
	if err != nil {
		return err
	}

	eventID := meeting.ExternalEventID()
	event, err := srv.Events.Get(primaryCalendar, eventID).Context(ctx).Do()
	if err != nil {
		return providerError("get event", err)
	}

	event.Summary = meeting.Title()
	event.Description = meeting.Description()
	event.Start = b.eventTime(meeting.StartTime())
	event.End = b.eventTime(meeting.EndTime())
	if attendees := meeting.Attendees(); len(attendees) > 0 {
		event.Attendees = eventAttendees(attendees)
	}

	if _, err := srv.Events.Update(primaryCalendar, eventID, event).Context(ctx).Do(); err != nil {
		return providerError("update event", err)
	}
	return nil
}

// DeleteEvent removes eventID from the user's primary calendar.
func (b *SyncBridge) DeleteEvent(ctx context.Context, user *models.User, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	srv, err := b.clients.ActiveClient(ctx, user)
	if err != nil {
		return err
	}

	if err := srv.Events.Delete(primaryCalendar, eventID).Context(ctx).Do(); err != nil {
		return providerError("delete event", err)
	}
	return nil
}

// GetEvents lists events in [start, end) ordered by start time, following every page.
func (b *SyncBridge) GetEvents(ctx context.Context, user *models.User, start, end time.Time) ([]models.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	srv, err := b.clients.ActiveClient(ctx, user)
	if err != nil {
		return nil, err
	}

	call := srv.Events.List(primaryCalendar).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	events := []models.CalendarEvent{}
	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			events = append(events, projectEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, providerError("list events", err)
	}

	return events, nil
}

// CheckAvailability reports whether the window holds no events at all.
//
// This is an existence check on the primary calendar, not a free/busy merge; all-day events count.
func (b *SyncBridge) CheckAvailability(ctx context.Context, user *models.User, start, end time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	srv, err := b.clients.ActiveClient(ctx, user)
	if err != nil {
		return false, err
	}

	result, err := srv.Events.List(primaryCalendar).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return false, providerError("list events", err)
	}

	return len(result.Items) == 0, nil
}

func (b *SyncBridge) eventTime(t time.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.In(b.loc).Format(time.RFC3339),
		TimeZone: b.loc.String(),
	}
}

func eventAttendees(emails []string) []*calendar.EventAttendee {
	attendees := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}
	return attendees
}

// projectEvent maps a provider event to [models.CalendarEvent], preferring timestamps over all-day dates.
func projectEvent(item *calendar.Event) models.CalendarEvent {
	event := models.CalendarEvent{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
	}
	if item.Start != nil {
		event.Start = item.Start.DateTime
		if event.Start == "" {
			event.Start = item.Start.Date
			event.AllDay = true
		}
	}
	if item.End != nil {
		event.End = item.End.DateTime
		if event.End == "" {
			event.End = item.End.Date
		}
	}
	return event
}

func providerError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", shared.ErrProvider, op, err)
}
