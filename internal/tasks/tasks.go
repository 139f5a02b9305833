package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/services"
	"github.com/desertthunder/huddle/internal/shared"
)

// MeetingStore is the persistence needed by [Scheduler], satisfied by repositories.MeetingRepository.
type MeetingStore interface {
	Create(ctx context.Context, meeting *models.Meeting) error
	Update(ctx context.Context, meeting *models.Meeting) error
	GetForUser(ctx context.Context, userID, id string) (*models.Meeting, error)
	ListForUser(ctx context.Context, userID string, filter models.MeetingFilter) ([]*models.Meeting, error)
	DeleteForUser(ctx context.Context, userID, id string) error
	SetExternalEventID(ctx context.Context, meeting *models.Meeting, eventID string) error
}

// MeetingInput holds the fields of a new meeting.
type MeetingInput struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Attendees   []string
}

// MeetingPatch holds the fields to change on an existing meeting; nil leaves a field as is.
type MeetingPatch struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Attendees   *[]string
}

// Result is a successful local mutation, with CalendarError set when the calendar mirror failed.
type Result struct {
	Meeting       *models.Meeting
	CalendarError string
}

// Scheduler implements the meeting operations for a request-scoped owner.
type Scheduler struct {
	meetings MeetingStore
	calendar services.Calendar
	logger   *log.Logger
}

// NewScheduler creates a [Scheduler].
func NewScheduler(meetings MeetingStore, calendar services.Calendar, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scheduler{
		meetings: meetings,
		calendar: calendar,
		logger:   shared.WithLogger(logger, "component", "scheduler"),
	}
}

// List returns the owner's meetings narrowed by filter.
func (s *Scheduler) List(ctx context.Context, owner *models.User, filter models.MeetingFilter) ([]*models.Meeting, error) {
	return s.meetings.ListForUser(ctx, owner.ID(), filter)
}

// Get returns one of the owner's meetings; meetings of other users are [shared.ErrNotFound].
func (s *Scheduler) Get(ctx context.Context, owner *models.User, id string) (*models.Meeting, error) {
	return s.meetings.GetForUser(ctx, owner.ID(), id)
}

// Create validates and persists a meeting, then mirrors it to the calendar when sync is set.
//
// A calendar failure never undoes the local record; it is reported in [Result.CalendarError].
func (s *Scheduler) Create(ctx context.Context, owner *models.User, in MeetingInput, sync bool) (*Result, error) {
	meeting := models.NewMeeting(0, owner.ID(), in.Title, in.StartTime, in.EndTime)
	meeting.SetDescription(in.Description)
	meeting.SetAttendees(in.Attendees)

	if err := meeting.Validate(); err != nil {
		return nil, err
	}
	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, err
	}

	result := &Result{Meeting: meeting}
	if !sync {
		return result, nil
	}

	if err := s.mirror(ctx, owner, meeting); err != nil {
		s.logger.Warn("calendar sync failed on create", "meeting", meeting.ID(), "err", err)
		result.CalendarError = err.Error()
	}
	return result, nil
}

// Update applies patch to one of the owner's meetings and pushes the change to a linked event.
//
// The merged meeting is validated before anything is written.
func (s *Scheduler) Update(ctx context.Context, owner *models.User, id string, patch MeetingPatch) (*Result, error) {
	meeting, err := s.meetings.GetForUser(ctx, owner.ID(), id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		meeting.SetTitle(*patch.Title)
	}
	if patch.Description != nil {
		meeting.SetDescription(*patch.Description)
	}
	if patch.StartTime != nil {
		meeting.SetStartTime(*patch.StartTime)
	}
	if patch.EndTime != nil {
		meeting.SetEndTime(*patch.EndTime)
	}
	if patch.Attendees != nil {
		meeting.SetAttendees(*patch.Attendees)
	}

	if err := meeting.Validate(); err != nil {
		return nil, err
	}
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, err
	}

	result := &Result{Meeting: meeting}
	if !meeting.Synced() {
		return result, nil
	}

	if err := s.calendar.UpdateEvent(ctx, owner, meeting); err != nil {
		s.logger.Warn("calendar sync failed on update", "meeting", meeting.ID(), "event", meeting.ExternalEventID(), "err", err)
		result.CalendarError = err.Error()
	}
	return result, nil
}

// Delete removes one of the owner's meetings.
//
// A linked event is deleted first on a best-effort basis; a failure there is logged and
// the local record is removed regardless.
func (s *Scheduler) Delete(ctx context.Context, owner *models.User, id string) error {
	meeting, err := s.meetings.GetForUser(ctx, owner.ID(), id)
	if err != nil {
		return err
	}

	if meeting.Synced() {
		if err := s.calendar.DeleteEvent(ctx, owner, meeting.ExternalEventID()); err != nil {
			s.logger.Warn("failed to delete calendar event", "meeting", meeting.ID(), "event", meeting.ExternalEventID(), "err", err)
		}
	}

	return s.meetings.DeleteForUser(ctx, owner.ID(), id)
}

// SyncToCalendar mirrors an unsynced meeting to the owner's calendar.
//
// Fails with [shared.ErrAlreadySynced], without a provider call, when the meeting is already linked.
func (s *Scheduler) SyncToCalendar(ctx context.Context, owner *models.User, id string) (*models.Meeting, error) {
	meeting, err := s.meetings.GetForUser(ctx, owner.ID(), id)
	if err != nil {
		return nil, err
	}

	if meeting.Synced() {
		return nil, fmt.Errorf("%w: meeting %s is linked to event %s", shared.ErrAlreadySynced, meeting.ID(), meeting.ExternalEventID())
	}

	if err := s.mirror(ctx, owner, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

// mirror creates the provider event and stores its id on the meeting.
func (s *Scheduler) mirror(ctx context.Context, owner *models.User, meeting *models.Meeting) error {
	eventID, err := s.calendar.CreateEvent(ctx, owner, meeting)
	if err != nil {
		return err
	}

	if err := s.meetings.SetExternalEventID(ctx, meeting, eventID); err != nil {
		s.logger.Error("created calendar event but failed to link it", "meeting", meeting.ID(), "event", eventID, "err", err)
		return fmt.Errorf("failed to link calendar event %s: %w", eventID, err)
	}
	return nil
}

// IsCalendarError reports whether err came from the credential or provider layer.
func IsCalendarError(err error) bool {
	return IsCredentialError(err) || errors.Is(err, shared.ErrProvider)
}

// IsCredentialError reports whether err means the stored credential cannot be used.
func IsCredentialError(err error) bool {
	for _, target := range []error{
		shared.ErrNotConnected,
		shared.ErrExpiredNoRefresh,
		shared.ErrTokenExchange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
