package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/huddle/internal/models"
)

var weekdays = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// StartOfMonth returns midnight on the first day of t's month in loc.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// MeetingsByDay counts meetings per day of month for the month starting at month.
func MeetingsByDay(month time.Time, meetings []*models.Meeting) map[int]int {
	counts := map[int]int{}
	for _, m := range meetings {
		start := m.StartTime().In(month.Location())
		if start.Year() == month.Year() && start.Month() == month.Month() {
			counts[start.Day()]++
		}
	}
	return counts
}

// RenderMonth draws a Monday-first month grid; days with meetings carry a "•" and today is highlighted.
func RenderMonth(month, today time.Time, meetings []*models.Meeting) string {
	counts := MeetingsByDay(month, meetings)
	today = today.In(month.Location())

	var b strings.Builder
	b.WriteString(styles.title.Render(month.Format("January 2006")))
	b.WriteString("\n")
	b.WriteString(styles.help.Render(strings.Join(weekdays, "  ")))
	b.WriteString("\n")

	offset := (int(month.Weekday()) + 6) % 7
	days := month.AddDate(0, 1, -1).Day()

	cells := make([]string, 0, 42)
	for range offset {
		cells = append(cells, "   ")
	}
	for day := 1; day <= days; day++ {
		marker := " "
		if counts[day] > 0 {
			marker = "•"
		}
		cell := fmt.Sprintf("%2d%s", day, marker)

		isToday := today.Year() == month.Year() && today.Month() == month.Month() && today.Day() == day
		switch {
		case isToday:
			cell = todayStyle.Render(cell)
		case counts[day] > 0:
			cell = styles.ok.Render(cell)
		}
		cells = append(cells, cell)
	}

	for i := 0; i < len(cells); i += 7 {
		end := min(i+7, len(cells))
		b.WriteString(strings.Join(cells[i:end], " "))
		b.WriteString("\n")
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	b.WriteString(fmt.Sprintf("\n%d meetings this month", total))
	return b.String()
}
