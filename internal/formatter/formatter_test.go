package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
	th "github.com/desertthunder/huddle/internal/testing"
)

func sampleMeetings() []*models.Meeting {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	standup := models.NewMeeting(1, "user-1", "Standup", start, start.Add(15*time.Minute))
	standup.SetID("m-1")
	standup.SetAttendees([]string{"a@example.com", "b@example.com"})
	standup.SetExternalEventID("evt-1")

	review := models.NewMeeting(2, "user-1", "Design Review", start.Add(24*time.Hour), start.Add(25*time.Hour+30*time.Minute))
	review.SetID("m-2")
	review.SetDescription("Walk through the calendar grid")

	return []*models.Meeting{standup, review}
}

func TestExporters(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleMeetings(), berlin)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Start,End,Duration,Attendees,Event ID") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "m-1,Standup,2024-01-02 10:00 CET,2024-01-02 10:15 CET,15m,a@example.com;b@example.com,evt-1") {
			t.Errorf("CSV missing standup row, got: %s", output)
		}
		if !strings.Contains(output, "m-2,Design Review,") || !strings.Contains(output, "1h 30m,,") {
			t.Errorf("CSV missing review row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("Week 1", sampleMeetings(), time.UTC)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		for _, want := range []string{
			"# Week 1",
			"**Meetings**: 2",
			"## Tuesday, January 2, 2024",
			"- **Standup** 09:00-09:15 (15m) ✓",
			"  - Attendees: a@example.com, b@example.com",
			"## Wednesday, January 3, 2024",
			"- **Design Review** 09:00-10:30 (1h 30m)\n",
			"  - Walk through the calendar grid",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleMeetings(), nil)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Meetings: 2") {
			t.Errorf("Text missing count")
		}
		if !strings.Contains(output, "1. 2024-01-02 09:00 UTC - Standup (15m)") {
			t.Errorf("Text missing first meeting, got:\n%s", output)
		}
		if !strings.Contains(output, "2. 2024-01-03 09:00 UTC - Design Review (1h 30m)") {
			t.Errorf("Text missing second meeting, got:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleMeetings())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, `"external_event_id": "evt-1"`) || !strings.Contains(output, `"external_event_id": null`) {
			t.Errorf("JSON missing external ids, got:\n%s", output)
		}
	})

	t.Run("ExportToICS", func(t *testing.T) {
		data, err := ExportToICS("Team", sampleMeetings())
		if err != nil {
			t.Fatalf("ExportToICS failed: %v", err)
		}

		output := string(data)

		for _, want := range []string{
			"BEGIN:VCALENDAR",
			"METHOD:PUBLISH",
			"UID:m-1@huddle",
			"SUMMARY:Standup",
			"DTSTART:20240102T090000Z",
			"DTEND:20240102T091500Z",
			"X-HUDDLE-EVENT-ID:evt-1",
			"UID:m-2@huddle",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("ICS missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("WriteICS reports write failures", func(t *testing.T) {
		err := WriteICS(&th.FWriter{}, "Team", sampleMeetings())
		if err == nil || !strings.Contains(err.Error(), "failed to write calendar") {
			t.Errorf("expected write error, got %v", err)
		}
	})
}

func TestParseICS(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		data, err := ExportToICS("Team", sampleMeetings())
		if err != nil {
			t.Fatalf("ExportToICS failed: %v", err)
		}

		imported, err := ParseICS(strings.NewReader(string(data)))
		if err != nil {
			t.Fatalf("ParseICS failed: %v", err)
		}
		if len(imported) != 2 {
			t.Fatalf("expected 2 meetings, got %d", len(imported))
		}

		first := imported[0]
		if first.UID != "m-1@huddle" || first.Title != "Standup" {
			t.Errorf("unexpected first meeting: %+v", first)
		}
		if !first.StartTime.Equal(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected start %v", first.StartTime)
		}
		if len(first.Attendees) != 2 || first.Attendees[0] != "a@example.com" {
			t.Errorf("unexpected attendees %v", first.Attendees)
		}
		if imported[1].Description != "Walk through the calendar grid" {
			t.Errorf("unexpected description %q", imported[1].Description)
		}
	})

	t.Run("skips all-day and defaults end", func(t *testing.T) {
		feed := strings.Join([]string{
			"BEGIN:VCALENDAR",
			"VERSION:2.0",
			"PRODID:-//test//EN",
			"BEGIN:VEVENT",
			"UID:holiday",
			"DTSTART;VALUE=DATE:20240101",
			"SUMMARY:Holiday",
			"END:VEVENT",
			"BEGIN:VEVENT",
			"UID:call",
			"DTSTART:20240102T150000Z",
			"SUMMARY:Call",
			"END:VEVENT",
			"END:VCALENDAR",
			"",
		}, "\r\n")

		imported, err := ParseICS(strings.NewReader(feed))
		if err != nil {
			t.Fatalf("ParseICS failed: %v", err)
		}
		if len(imported) != 1 || imported[0].Title != "Call" {
			t.Fatalf("expected only Call, got %+v", imported)
		}
		if got := imported[0].EndTime.Sub(imported[0].StartTime); got != 30*time.Minute {
			t.Errorf("expected 30m default duration, got %v", got)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"text", FormatText},
		{"ical", FormatICS},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if FormatMarkdown.Ext() != "md" || FormatICS.Ext() != "ics" {
		t.Errorf("unexpected extensions")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{15 * time.Minute, "15m"},
		{time.Hour, "1h"},
		{90 * time.Minute, "1h 30m"},
		{2*time.Hour + 29*time.Second, "2h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "week.ics")
		got, err := WriteExport(sampleMeetings(), FormatICS, path, time.UTC)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "SUMMARY:Standup") {
			t.Errorf("ICS file missing content")
		}
	})

	t.Run("default path", func(t *testing.T) {
		wd := th.MustGetwd(t)
		th.MustChdir(t, dir)
		t.Cleanup(func() { th.MustChdir(t, wd) })

		got, err := WriteExport(sampleMeetings(), FormatCSV, "", time.UTC)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "meetings.csv" {
			t.Errorf("expected meetings.csv, got %s", got)
		}
		th.AssertFileExists(t, filepath.Join(dir, "meetings.csv"))
	})
}
