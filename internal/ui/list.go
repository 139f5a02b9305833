package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/huddle/internal/formatter"
	"github.com/desertthunder/huddle/internal/models"
)

var _ list.Item = meetingItem{}

// meetingItem wraps [models.Meeting] to implement [list.Item].
type meetingItem struct {
	meeting *models.Meeting
	loc     *time.Location
}

func (i meetingItem) FilterValue() string { return i.meeting.Title() }
func (i meetingItem) Title() string       { return i.meeting.Title() }
func (i meetingItem) Description() string {
	start := i.meeting.StartTime().In(i.loc)
	parts := []string{
		fmt.Sprintf("%s-%s", start.Format("Mon Jan 2 15:04"), i.meeting.EndTime().In(i.loc).Format("15:04")),
		formatter.FormatDuration(i.meeting.Duration()),
	}
	if n := len(i.meeting.Attendees()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d attendees", n))
	}
	if i.meeting.Synced() {
		parts = append(parts, "synced")
	}
	return strings.Join(parts, " • ")
}

func meetingItems(meetings []*models.Meeting, loc *time.Location) []list.Item {
	items := make([]list.Item, len(meetings))
	for i, m := range meetings {
		items[i] = meetingItem{meeting: m, loc: loc}
	}
	return items
}
