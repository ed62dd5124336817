package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/rcsgrep/internal/grep"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Color modes for terminal output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Grep       GrepConfig        `yaml:"grep"`
	Repository RepositoryConfig  `yaml:"repository"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Grep.Validate(); err != nil {
		return err
	}
	if err := c.Repository.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GrepConfig holds the defaults for the grep command. Flags override them.
type GrepConfig struct {
	Format       string `yaml:"format"`
	Separator    string `yaml:"separator"`
	LineWraps    bool   `yaml:"linewraps"`
	FixedStrings bool   `yaml:"fixed_strings"`
	IgnoreCase   bool   `yaml:"ignore_case"`
	Color        string `yaml:"color"`
	// Workers bounds concurrent parsing during index sync; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Validate validates the grep configuration.
func (c *GrepConfig) Validate() error {
	if c.Color == "" {
		c.Color = ColorAuto
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.Required, validation.By(validFormat)),
		validation.Field(&c.Color, validation.In(ColorAuto, ColorAlways, ColorNever)),
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

func validFormat(v any) error {
	s, _ := v.(string)
	_, err := grep.ParseFormat(s)
	return err
}

// RepositoryConfig holds the root of the RCS file tree served by serve, mcp and index.
type RepositoryConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the repository configuration.
func (c *RepositoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Grep: GrepConfig{
			Format: grep.DefaultFormat,
			Color:  ColorAuto,
		},
		Repository: RepositoryConfig{
			Path: ".",
		},
		SQLite: SQLiteConfig{
			Path: "./rcsgrep.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
