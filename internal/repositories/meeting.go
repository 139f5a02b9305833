package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
)

var _ models.Repository[*models.Meeting] = (*MeetingRepository)(nil)

const meetingColumns = `id, sequence, user_id, title, description, start_time, end_time, attendees, external_event_id, created_at, updated_at, deleted_at`

// MeetingRepository implements models.Repository[*models.Meeting].
//
// The plain [models.Repository] methods are unscoped; request paths use the ForUser variants
// so a meeting owned by someone else is indistinguishable from a missing one.
type MeetingRepository struct {
	db *sql.DB
}

// NewMeetingRepository creates a new MeetingRepository with the given database connection
func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts a new meeting with generated ID and sequence
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if err := meeting.Validate(); err != nil {
		return err
	}

	attendees, err := json.Marshal(meeting.Attendees())
	if err != nil {
		return fmt.Errorf("failed to encode attendees: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "meetings")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO meetings (id, sequence, user_id, title, description, start_time, end_time, attendees, external_event_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		meeting.UserID(),
		meeting.Title(),
		meeting.Description(),
		meeting.StartTime(),
		meeting.EndTime(),
		string(attendees),
		nullString(meeting.ExternalEventID()),
		meeting.CreatedAt(),
		meeting.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert meeting: %w", err)
	}

	meeting.SetID(id)
	meeting.SetSequence(sequence)
	return nil
}

// Get retrieves a meeting by ID regardless of owner, excluding soft-deleted meetings
func (r *MeetingRepository) Get(ctx context.Context, id string) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), id)
}

// GetForUser retrieves a meeting by ID only when userID owns it
func (r *MeetingRepository) GetForUser(ctx context.Context, userID, id string) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID), id)
}

// Update writes the mutable fields of a meeting, scoped to its owner.
//
// external_event_id is only ever filled in, never cleared.
func (r *MeetingRepository) Update(ctx context.Context, meeting *models.Meeting) error {
	if err := meeting.Validate(); err != nil {
		return err
	}

	attendees, err := json.Marshal(meeting.Attendees())
	if err != nil {
		return fmt.Errorf("failed to encode attendees: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE meetings
		SET title = ?, description = ?, start_time = ?, end_time = ?, attendees = ?,
		    external_event_id = COALESCE(?, external_event_id), updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		meeting.Title(),
		meeting.Description(),
		meeting.StartTime(),
		meeting.EndTime(),
		string(attendees),
		nullString(meeting.ExternalEventID()),
		now,
		meeting.ID(),
		meeting.UserID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	if err := affectedOne(result, "meeting", meeting.ID()); err != nil {
		return err
	}

	meeting.SetUpdatedAt(now)
	return nil
}

// SetExternalEventID links meeting to a provider event and persists the link.
func (r *MeetingRepository) SetExternalEventID(ctx context.Context, meeting *models.Meeting, eventID string) error {
	if eventID == "" {
		return fmt.Errorf("%w: external event id", shared.ErrMissingArgument)
	}

	now := time.Now().UTC()

	query := `
		UPDATE meetings
		SET external_event_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, eventID, now, meeting.ID(), meeting.UserID())
	if err != nil {
		return fmt.Errorf("failed to set external event id: %w", err)
	}
	if err := affectedOne(result, "meeting", meeting.ID()); err != nil {
		return err
	}

	meeting.SetExternalEventID(eventID)
	meeting.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a meeting by ID regardless of owner
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE meetings SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	return affectedOne(result, "meeting", id)
}

// DeleteForUser soft-deletes a meeting only when userID owns it
func (r *MeetingRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	query := `UPDATE meetings SET deleted_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	return affectedOne(result, "meeting", id)
}

// ListForUser lists the meetings owned by userID narrowed by filter.
//
// Upcoming meetings are ordered soonest first; everything else most recent first.
func (r *MeetingRepository) ListForUser(ctx context.Context, userID string, filter models.MeetingFilter) ([]*models.Meeting, error) {
	criteria := map[string]any{"user_id": userID, "scope": filter.Scope}
	if filter.From != nil {
		criteria["from"] = *filter.From
	}
	if filter.To != nil {
		criteria["to"] = *filter.To
	}
	if !filter.Now.IsZero() {
		criteria["now"] = filter.Now
	}
	return r.List(ctx, criteria)
}

// List retrieves meetings matching the given criteria, excluding soft-deleted meetings
//
// Supported criteria: "user_id" (string), "scope" ([models.Scope]), "from" and "to"
// ([time.Time] bounds on start_time), "now" ([time.Time] reference for scope).
func (r *MeetingRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if from, ok := criteria["from"].(time.Time); ok {
		query += " AND start_time >= ?"
		args = append(args, from.UTC())
	}

	if to, ok := criteria["to"].(time.Time); ok {
		query += " AND start_time < ?"
		args = append(args, to.UTC())
	}

	now := time.Now().UTC()
	if n, ok := criteria["now"].(time.Time); ok {
		now = n.UTC()
	}

	order := " ORDER BY start_time DESC, sequence DESC"
	scope, _ := criteria["scope"].(models.Scope)
	switch scope {
	case models.ScopeUpcoming:
		query += " AND start_time > ?"
		args = append(args, now)
		order = " ORDER BY start_time ASC, sequence ASC"
	case models.ScopePast:
		query += " AND start_time <= ?"
		args = append(args, now)
	}

	rows, err := r.db.QueryContext(ctx, query+order, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer rows.Close()

	meetings := []*models.Meeting{}
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return meetings, nil
}

func (r *MeetingRepository) scanOne(row *sql.Row, id string) (*models.Meeting, error) {
	meeting, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: meeting %s", shared.ErrNotFound, id)
	}
	return meeting, err
}

// scanMeeting scans a single row into a [models.Meeting]
func scanMeeting(s scanner) (*models.Meeting, error) {
	var (
		id              string
		sequence        int
		userID          string
		title           string
		description     string
		startTime       time.Time
		endTime         time.Time
		attendees       string
		externalEventID sql.NullString
		createdAt       time.Time
		updatedAt       time.Time
		deletedAt       sql.NullTime
	)

	err := s.Scan(&id, &sequence, &userID, &title, &description, &startTime, &endTime, &attendees,
		&externalEventID, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan meeting: %w", err)
	}

	var emails []string
	if attendees != "" {
		if err := json.Unmarshal([]byte(attendees), &emails); err != nil {
			return nil, fmt.Errorf("failed to decode attendees for meeting %s: %w", id, err)
		}
	}

	meeting := models.NewMeeting(sequence, userID, title, startTime, endTime)
	meeting.SetID(id)
	meeting.SetDescription(description)
	meeting.SetAttendees(emails)
	meeting.SetExternalEventID(externalEventID.String)
	meeting.SetCreatedAt(createdAt.UTC())
	meeting.SetUpdatedAt(updatedAt.UTC())
	if deletedAt.Valid {
		meeting.SetDeletedAt(&deletedAt.Time)
	}

	return meeting, nil
}
