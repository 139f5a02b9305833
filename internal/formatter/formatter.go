// package formatter provides functions to export meetings to various formats (CSV, Markdown, plain text, ICS, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
)

const timeLayout = "2006-01-02 15:04 MST"

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatICS      Format = "ics"
)

// ParseFormat accepts a format name or a common alias ("md", "text", "ical").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "ics", "ical":
		return FormatICS, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
	}
}

// Ext is the file extension for the format.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ExportToCSV converts meetings to CSV with columns: ID, Title, Start, End, Duration, Attendees, Event ID
func ExportToCSV(meetings []*models.Meeting, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Start", "End", "Duration", "Attendees", "Event ID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range meetings {
		record := []string{
			m.ID(),
			m.Title(),
			formatTime(m.StartTime(), loc),
			formatTime(m.EndTime(), loc),
			FormatDuration(m.Duration()),
			strings.Join(m.Attendees(), ";"),
			m.ExternalEventID(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders meetings as a Markdown agenda grouped by day
func ExportToMarkdown(heading string, meetings []*models.Meeting, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", heading))
	buf.WriteString(fmt.Sprintf("**Meetings**: %d\n\n", len(meetings)))

	day := ""
	for _, m := range meetings {
		start := m.StartTime().In(location(loc))
		if d := start.Format("Monday, January 2, 2006"); d != day {
			day = d
			buf.WriteString(fmt.Sprintf("## %s\n\n", day))
		}

		synced := ""
		if m.Synced() {
			synced = " ✓"
		}
		buf.WriteString(fmt.Sprintf("- **%s** %s-%s (%s)%s\n",
			m.Title(),
			start.Format("15:04"),
			m.EndTime().In(location(loc)).Format("15:04"),
			FormatDuration(m.Duration()),
			synced,
		))
		if m.Description() != "" {
			buf.WriteString(fmt.Sprintf("  - %s\n", m.Description()))
		}
		if attendees := m.Attendees(); len(attendees) > 0 {
			buf.WriteString(fmt.Sprintf("  - Attendees: %s\n", strings.Join(attendees, ", ")))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts meetings to plain text format
func ExportToText(meetings []*models.Meeting, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Meetings: %d\n\n", len(meetings)))

	for i, m := range meetings {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", i+1, formatTime(m.StartTime(), loc), m.Title(), FormatDuration(m.Duration())))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders meetings as indented JSON
func ExportToJSON(meetings []*models.Meeting) ([]byte, error) {
	data, err := json.MarshalIndent(map[string]any{"meetings": meetings}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meetings: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders meetings in format.
func Export(meetings []*models.Meeting, format Format, loc *time.Location) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(meetings, loc)
	case FormatMarkdown:
		return ExportToMarkdown("Meetings", meetings, loc)
	case FormatText:
		return ExportToText(meetings, loc)
	case FormatICS:
		return ExportToICS("Meetings", meetings)
	case FormatJSON:
		return ExportToJSON(meetings)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders meetings in format and writes them to path.
//
// Defaults to meetings.{ext} in the working directory; parent directories are created.
func WriteExport(meetings []*models.Meeting, format Format, path string, loc *time.Location) (string, error) {
	if path == "" {
		path = "meetings." + format.Ext()
	}

	data, err := Export(meetings, format, loc)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// FormatDuration renders d as "45m", "1h" or "1h 30m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)

	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(timeLayout)
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
