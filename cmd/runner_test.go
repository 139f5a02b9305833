package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
	"github.com/desertthunder/huddle/internal/tasks"
	tu "github.com/desertthunder/huddle/internal/testing"
)

var fixedNow = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

type cliFixture struct {
	t      *testing.T
	runner *Runner
	output *bytes.Buffer
	google *tu.FakeGoogle
	dir    string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	google := tu.NewFakeGoogle(t)

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "huddle.db")
	config.Google = google.GoogleConfig()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(dir, "config.toml"),
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     output,
	})
	runner.now = func() time.Time { return fixedNow }

	return &cliFixture{t: t, runner: runner, output: output, google: google, dir: dir}
}

// run executes args against a fresh command tree and returns what was written.
func (f *cliFixture) run(args ...string) (string, error) {
	f.t.Helper()
	f.output.Reset()

	app := &cli.Command{
		Name:     "huddle",
		Writer:   &bytes.Buffer{},
		Commands: f.runner.register(),
	}
	err := app.Run(context.Background(), append([]string{"huddle"}, args...))
	return f.output.String(), err
}

func (f *cliFixture) mustRun(args ...string) string {
	f.t.Helper()
	out, err := f.run(args...)
	if err != nil {
		f.t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

func (f *cliFixture) createUser(email string) *models.User {
	f.t.Helper()
	a, err := f.runner.open()
	if err != nil {
		f.t.Fatalf("failed to open app: %v", err)
	}
	defer a.Close()

	user := models.NewUser(0, email, "Ada")
	if err := a.users.Create(context.Background(), user); err != nil {
		f.t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (f *cliFixture) connect(user *models.User) {
	f.t.Helper()
	a, err := f.runner.open()
	if err != nil {
		f.t.Fatalf("failed to open app: %v", err)
	}
	defer a.Close()

	blob, _ := json.Marshal(&oauth2.Token{
		AccessToken:  "access-1",
		TokenType:    "Bearer",
		RefreshToken: tu.FakeRefreshToken,
		Expiry:       time.Now().Add(time.Hour),
	})
	if err := a.users.UpdateCalendarToken(context.Background(), user, string(blob)); err != nil {
		f.t.Fatalf("failed to store token: %v", err)
	}
}

func (f *cliFixture) seedMeetings(user *models.User) {
	f.t.Helper()
	a, err := f.runner.open()
	if err != nil {
		f.t.Fatalf("failed to open app: %v", err)
	}
	defer a.Close()

	for _, in := range []tasks.MeetingInput{
		{Title: "Standup", StartTime: fixedNow.Add(21 * time.Hour), EndTime: fixedNow.Add(21*time.Hour + 15*time.Minute)},
		{Title: "Review", StartTime: fixedNow.Add(48 * time.Hour), EndTime: fixedNow.Add(49 * time.Hour)},
		{Title: "Retro", StartTime: fixedNow.Add(-48 * time.Hour), EndTime: fixedNow.Add(-47 * time.Hour)},
	} {
		if _, err := a.scheduler.Create(context.Background(), user, in, false); err != nil {
			f.t.Fatalf("failed to seed %s: %v", in.Title, err)
		}
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "serve", "db", "users", "calendar", "meetings", "tui"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("setup writes a config and migrates", func(t *testing.T) {
		f := newCLIFixture(t)
		f.mustRun("setup")

		tu.AssertFileExists(t, f.runner.configPath)
		tu.AssertFileExists(t, f.runner.config.Database.Path)
	})

	t.Run("db status lists applied migrations", func(t *testing.T) {
		f := newCLIFixture(t)
		f.mustRun("db", "migrate")

		out := f.mustRun("db", "status")
		if !strings.Contains(out, "Applied migrations") || !strings.Contains(out, "0001") {
			t.Errorf("unexpected status output:\n%s", out)
		}
	})

	t.Run("serve refuses placeholder credentials", func(t *testing.T) {
		f := newCLIFixture(t)
		f.runner.config.Google.ClientID = "your_google_client_id"

		if _, err := f.run("serve"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestUserCommands(t *testing.T) {
	t.Run("create prints the token", func(t *testing.T) {
		f := newCLIFixture(t)

		out := f.mustRun("users", "create", "--email", "ada@example.com", "--name", "Ada Lovelace")
		if !strings.Contains(out, "✓ Created Ada Lovelace <ada@example.com>") || !strings.Contains(out, "API token: ") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("create as json", func(t *testing.T) {
		f := newCLIFixture(t)

		out := f.mustRun("users", "create", "--email", "ada@example.com", "--name", "Ada", "--json")
		var body map[string]string
		if err := json.Unmarshal([]byte(out), &body); err != nil {
			t.Fatalf("expected JSON, got %q: %v", out, err)
		}
		if body["api_token"] == "" || body["email"] != "ada@example.com" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		f := newCLIFixture(t)

		if _, err := f.run("users", "create", "--email", "not-an-email", "--name", "Ada"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("list shows calendar status", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")
		f.connect(user)
		f.createUser("bob@example.com")

		out := f.mustRun("users", "list")
		if !strings.Contains(out, "Users (2)") || !strings.Contains(out, "calendar ✓") || !strings.Contains(out, "calendar ✗") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("rotate-token", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")

		out := f.mustRun("users", "rotate-token", "--user", "ada@example.com")
		if !strings.HasPrefix(out, "API token: ") || strings.Contains(out, user.APIToken()) {
			t.Errorf("expected a new token, got %q", out)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newCLIFixture(t)

		if _, err := f.run("users", "rotate-token", "--user", "ghost@example.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := f.run("users", "rotate-token"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestCalendarCommands(t *testing.T) {
	t.Run("connect prints the consent url", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")

		out := f.mustRun("calendar", "connect", "--user", "ada@example.com", "--no-browser")
		if !strings.Contains(out, f.google.Server.URL+"/auth?") || !strings.Contains(out, "state="+user.ID()) {
			t.Errorf("unexpected output:\n%s", out)
		}
		if !strings.Contains(out, "access_type=offline") {
			t.Errorf("expected offline access, got:\n%s", out)
		}
	})

	t.Run("connect requires credentials", func(t *testing.T) {
		f := newCLIFixture(t)
		f.createUser("ada@example.com")
		f.runner.config.Google.ClientSecret = ""

		if _, err := f.run("calendar", "connect", "--user", "ada@example.com"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("status and disconnect", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")
		f.connect(user)

		if out := f.mustRun("calendar", "status", "--user", user.ID()); !strings.Contains(out, "✓ Google Calendar connected") {
			t.Errorf("unexpected status: %q", out)
		}
		if out := f.mustRun("calendar", "disconnect", "--user", user.ID()); !strings.Contains(out, "disconnected successfully") {
			t.Errorf("unexpected disconnect output: %q", out)
		}
		if out := f.mustRun("calendar", "status", "--user", user.ID()); !strings.Contains(out, "✗ Google Calendar not connected") {
			t.Errorf("unexpected status after disconnect: %q", out)
		}
	})

	t.Run("events", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")
		f.connect(user)
		start := fixedNow.Add(24 * time.Hour)
		f.google.AddEvent(&calendar.Event{
			Summary: "Dentist",
			Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
			End:     &calendar.EventDateTime{DateTime: start.Add(time.Hour).Format(time.RFC3339)},
		})

		out := f.mustRun("calendar", "events", "--user", user.ID(), "--json")
		var events []models.CalendarEvent
		if err := json.Unmarshal([]byte(out), &events); err != nil {
			t.Fatalf("expected JSON events, got %q: %v", out, err)
		}
		if len(events) != 1 || events[0].Title != "Dentist" {
			t.Errorf("unexpected events %+v", events)
		}
	})

	t.Run("events rejects an inverted window", func(t *testing.T) {
		f := newCLIFixture(t)
		f.createUser("ada@example.com")

		_, err := f.run("calendar", "events", "--user", "ada@example.com", "--from", "2024-01-05 10:00", "--to", "2024-01-04 10:00")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestMeetingCommands(t *testing.T) {
	t.Run("list scopes", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")
		f.seedMeetings(user)

		out := f.mustRun("meetings", "list", "--user", "ada@example.com")
		if !strings.Contains(out, "Meetings: upcoming (2)") || !strings.Contains(out, "Standup") || strings.Contains(out, "Retro") {
			t.Errorf("unexpected upcoming output:\n%s", out)
		}

		out = f.mustRun("meetings", "list", "--user", "ada@example.com", "--scope", "past")
		if !strings.Contains(out, "Meetings: past (1)") || !strings.Contains(out, "Retro") {
			t.Errorf("unexpected past output:\n%s", out)
		}

		if _, err := f.run("meetings", "list", "--user", "ada@example.com", "--scope", "someday"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("export csv", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")
		f.seedMeetings(user)

		path := filepath.Join(f.dir, "out.csv")
		out := f.mustRun("meetings", "export", "--user", "ada@example.com", "--scope", "all", "--format", "csv", "--output", path)
		if !strings.Contains(out, "✓ Exported 3 meetings") {
			t.Errorf("unexpected output: %q", out)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "ID,Title,Start,End,Duration,Attendees,Event ID") {
			t.Errorf("unexpected csv:\n%s", content)
		}
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		f := newCLIFixture(t)
		f.createUser("ada@example.com")

		if _, err := f.run("meetings", "export", "--user", "ada@example.com", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("import ics", func(t *testing.T) {
		f := newCLIFixture(t)
		f.createUser("ada@example.com")

		feed := strings.Join([]string{
			"BEGIN:VCALENDAR",
			"VERSION:2.0",
			"PRODID:-//test//EN",
			"BEGIN:VEVENT",
			"UID:planning",
			"DTSTART:20240105T100000Z",
			"DTEND:20240105T110000Z",
			"SUMMARY:Planning",
			"END:VEVENT",
			"BEGIN:VEVENT",
			"UID:untitled",
			"DTSTART:20240106T100000Z",
			"DTEND:20240106T110000Z",
			"END:VEVENT",
			"END:VCALENDAR",
			"",
		}, "\r\n")
		path := filepath.Join(f.dir, "feed.ics")
		if err := os.WriteFile(path, []byte(feed), 0644); err != nil {
			t.Fatalf("failed to write feed: %v", err)
		}

		out := f.mustRun("meetings", "import", "--user", "ada@example.com", "--file", path)
		if !strings.Contains(out, "✓ Planning") || !strings.Contains(out, "✗ untitled") || !strings.Contains(out, "Imported 1 of 2 events") {
			t.Errorf("unexpected import output:\n%s", out)
		}

		out = f.mustRun("meetings", "list", "--user", "ada@example.com")
		if !strings.Contains(out, "Planning") {
			t.Errorf("expected imported meeting to be listed:\n%s", out)
		}
	})

	t.Run("sync pushes unsynced meetings", func(t *testing.T) {
		f := newCLIFixture(t)
		user := f.createUser("ada@example.com")
		f.connect(user)
		f.seedMeetings(user)

		out := f.mustRun("meetings", "sync", "--user", "ada@example.com", "--json")
		var result tasks.BulkSyncResult
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("expected JSON result, got %q: %v", out, err)
		}
		if result.Considered != 2 || result.Synced != 2 || result.Failed != 0 {
			t.Errorf("unexpected result %+v", result)
		}
		if f.google.EventCount() != 2 {
			t.Errorf("expected 2 events at the provider, got %d", f.google.EventCount())
		}

		out = f.mustRun("meetings", "sync", "--user", "ada@example.com")
		if !strings.Contains(out, "Considered: 0") {
			t.Errorf("expected nothing left to sync, got:\n%s", out)
		}
	})

	t.Run("sync requires a connection", func(t *testing.T) {
		f := newCLIFixture(t)
		f.createUser("ada@example.com")

		if _, err := f.run("meetings", "sync", "--user", "ada@example.com"); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}
