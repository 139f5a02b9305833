package tasks

import (
	"fmt"

	"github.com/desertthunder/huddle/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadMeetings Phase = iota
	SyncMeetings
)

func (p Phase) String() string {
	switch p {
	case LoadMeetings:
		return "load_meetings"
	case SyncMeetings:
		return "sync_meetings"
	default:
		return ""
	}
}

func loadingMeetingsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadMeetings,
		Step:    0,
		Total:   1,
		Message: "Loading unsynced meetings...",
	}
}

func foundMeetingsUpdate(pending, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadMeetings,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d unsynced of %d meetings", pending, total),
		Data:    pending,
	}
}

func syncCompletedUpdate(step, total int, m *models.Meeting) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncMeetings,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, m.Title(), m.ExternalEventID()),
		Data:    m,
	}
}

func syncFailedUpdate(step, total int, m *models.Meeting, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncMeetings,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, m.Title(), err),
	}
}
