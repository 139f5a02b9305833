package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./huddle.db" {
			t.Errorf("expected database path ./huddle.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Google.ClientID != "your_google_client_id" {
			t.Errorf("expected placeholder client_id, got %s", config.Google.ClientID)
		}

		if config.Google.Configured() {
			t.Error("placeholder credentials should not count as configured")
		}

		if config.Google.RequestTimeout() != 15*time.Second {
			t.Errorf("expected 15s request timeout, got %v", config.Google.RequestTimeout())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080
timezone = "Europe/Berlin"

[google]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:8080/google/callback"
request_timeout_seconds = 3
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Database.MaxOpenConns != DefaultConfig().Database.MaxOpenConns {
			t.Errorf("expected unspecified fields to keep defaults, got max_open_conns %d", config.Database.MaxOpenConns)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if !config.Google.Configured() {
			t.Error("expected google credentials to be configured")
		}

		if config.Google.RequestTimeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.Google.RequestTimeout())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Server.FrontendURL = "https://app.example.com"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Server.FrontendURL != "https://app.example.com" {
			t.Errorf("expected frontend url to persist, got %s", loaded.Server.FrontendURL)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"GOOGLE_CLIENT_ID":     "env_id",
			"GOOGLE_CLIENT_SECRET": "env_secret",
			"FRONTEND_URL":         "http://frontend.test",
			"APP_TIMEZONE":         "America/New_York",
			"HUDDLE_PORT":          "9090",
		}
		config := DefaultConfig()
		config.ApplyEnv(func(k string) string { return env[k] })

		if config.Google.ClientID != "env_id" || config.Google.ClientSecret != "env_secret" {
			t.Errorf("expected env credentials, got %s/%s", config.Google.ClientID, config.Google.ClientSecret)
		}
		if config.Server.FrontendURL != "http://frontend.test" {
			t.Errorf("expected env frontend url, got %s", config.Server.FrontendURL)
		}
		if config.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", config.Server.Port)
		}
		if config.Database.Path != "./huddle.db" {
			t.Errorf("unset env should not override database path, got %s", config.Database.Path)
		}
	})

	t.Run("ResolveConfig With Env File", func(t *testing.T) {
		dir := t.TempDir()
		envPath := filepath.Join(dir, ".env")
		if err := os.WriteFile(envPath, []byte("GOOGLE_REDIRECT_URI=http://env.test/google/callback\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("GOOGLE_REDIRECT_URI") })

		config, err := ResolveConfig(filepath.Join(dir, "missing.toml"), envPath)
		if err != nil {
			t.Fatalf("failed to resolve config: %v", err)
		}
		if config.Google.RedirectURI != "http://env.test/google/callback" {
			t.Errorf("expected redirect uri from env file, got %s", config.Google.RedirectURI)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config.Google.ClientID = "id"
		config.Google.ClientSecret = "secret"
		config.Server.Timezone = "Mars/Olympus_Mons"
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for bad timezone, got %v", err)
		}
	})
}

func TestParseTime(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	tc := []struct {
		name  string
		value string
		loc   *time.Location
		want  time.Time
	}{
		{
			name:  "rfc3339",
			value: "2024-01-02T09:00:00Z",
			want:  time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "minutes with zulu",
			value: "2024-01-02T09:15Z",
			want:  time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC),
		},
		{
			name:  "offset",
			value: "2024-01-02T10:00:00+01:00",
			want:  time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "local form in configured zone",
			value: "2024-01-02 10:00:00",
			loc:   berlin,
			want:  time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			value: "2024-01-02",
			want:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.value, tt.loc)
			if err != nil {
				t.Fatalf("ParseTime() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := ParseTime("next tuesday", nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
