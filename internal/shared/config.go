package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const placeholderPrefix = "your_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Google   GoogleConfig   `toml:"google"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	FrontendURL string `toml:"frontend_url"`
	Timezone    string `toml:"timezone"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// GoogleConfig contains OAuth2 client credentials and Calendar API settings.
//
// AuthURL, TokenURL and APIEndpoint are empty in production and point at fakes in tests.
type GoogleConfig struct {
	ClientID              string  `toml:"client_id"`
	ClientSecret          string  `toml:"client_secret"`
	RedirectURI           string  `toml:"redirect_uri"`
	AuthURL               string  `toml:"auth_url"`
	TokenURL              string  `toml:"token_url"`
	APIEndpoint           string  `toml:"api_endpoint"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	RateLimit             float64 `toml:"rate_limit"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// RequestTimeout is the per-call bound for provider requests.
func (g GoogleConfig) RequestTimeout() time.Duration {
	if g.RequestTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// Configured reports whether real (non-placeholder) client credentials are present.
func (g GoogleConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" &&
		!strings.HasPrefix(g.ClientID, placeholderPrefix) && !strings.HasPrefix(g.ClientSecret, placeholderPrefix)
}

// Location resolves the configured timezone, defaulting to UTC.
func (s ServerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, s.Timezone)
	}
	return loc, nil
}

// Addr returns host:port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolveConfig loads the file at path when it exists (defaults otherwise),
// then applies the optional .env file and environment overrides.
func ResolveConfig(path, envFile string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file: %w", err)
			}
		}
	}

	config.ApplyEnv(os.Getenv)
	return config, nil
}

// ApplyEnv overrides config fields with non-empty values from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.Google.RedirectURI, "GOOGLE_REDIRECT_URI")
	set(&c.Server.FrontendURL, "FRONTEND_URL")
	set(&c.Server.Timezone, "APP_TIMEZONE")
	set(&c.Database.Path, "HUDDLE_DB_PATH")

	if v := getenv("HUDDLE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings required to serve requests.
func (c *Config) Validate() error {
	if !c.Google.Configured() {
		return fmt.Errorf("%w: google client_id and client_secret must be set", ErrMissingCredentials)
	}
	if c.Google.RedirectURI == "" {
		return fmt.Errorf("%w: google redirect_uri must be set", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path must be set", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port %d", ErrInvalidConfig, c.Server.Port)
	}
	if _, err := c.Server.Location(); err != nil {
		return err
	}
	return nil
}
