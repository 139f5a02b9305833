package shared

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger, "component", "test").Info("hello")

		out := buf.String()
		if !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("SetLogLevel filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("quiet")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		cases := []struct {
			in   string
			want log.Level
		}{
			{"debug", log.DebugLevel},
			{" WARN ", log.WarnLevel},
			{"error", log.ErrorLevel},
			{"", log.InfoLevel},
			{"chatty", log.InfoLevel},
		}
		for _, tc := range cases {
			if got := ParseLogLevel(tc.in); got != tc.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "huddle.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Info("to file")
	})
}

func TestGenerate(t *testing.T) {
	t.Run("GenerateID is unique", func(t *testing.T) {
		if a, b := GenerateID(), GenerateID(); a == b || len(a) != 36 {
			t.Errorf("expected distinct uuids, got %q and %q", a, b)
		}
	})

	t.Run("GenerateToken is 64 hex characters", func(t *testing.T) {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		if len(token) != 64 || strings.Trim(token, "0123456789abcdef") != "" {
			t.Errorf("unexpected token %q", token)
		}

		other, _ := GenerateToken()
		if other == token {
			t.Error("expected distinct tokens")
		}
	})
}

func TestValidationError(t *testing.T) {
	t.Run("empty is nil", func(t *testing.T) {
		if err := NewValidationError().OrNil(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("collects fields", func(t *testing.T) {
		verr := NewValidationError()
		verr.Add("title", "title is required")
		verr.Add("end_time", "end time must be after start time")
		verr.Add("title", "title must be a string")

		err := verr.OrNil()
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}

		var target *ValidationError
		if !errors.As(err, &target) || len(target.Fields["title"]) != 2 {
			t.Errorf("expected two title messages, got %v", target)
		}

		want := "validation failed: end_time: end time must be after start time; title: title is required, title must be a string"
		if err.Error() != want {
			t.Errorf("unexpected message:\n got %q\nwant %q", err.Error(), want)
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	restore := getRuntime
	t.Cleanup(func() { getRuntime = restore })

	t.Run("honours BROWSER", func(t *testing.T) {
		t.Setenv("BROWSER", "firefox")
		cmd, err := browserCommand("http://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cmd.Args[0] != "firefox" || cmd.Args[1] != "http://example.com" {
			t.Errorf("unexpected args %v", cmd.Args)
		}
	})

	t.Run("per platform", func(t *testing.T) {
		t.Setenv("BROWSER", "")
		cases := map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "cmd"}
		for goos, want := range cases {
			getRuntime = func() string { return goos }
			cmd, err := browserCommand("http://example.com")
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", goos, err)
			}
			if cmd.Args[0] != want {
				t.Errorf("%s: expected %s, got %v", goos, want, cmd.Args)
			}
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		t.Setenv("BROWSER", "")
		getRuntime = func() string { return "plan9" }
		if _, err := browserCommand("http://example.com"); err == nil {
			t.Error("expected an error for an unsupported platform")
		}
	})
}
