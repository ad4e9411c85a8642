package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tootvault/tootvault/internal/apperr"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Server  ServerConfig      `yaml:"server"`
	Archive ArchiveConfig     `yaml:"archive"`
	Content ContentConfig     `yaml:"content"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Content.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel string `yaml:"log_level"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// SlogLevel maps the configured level name onto a slog level. An empty
// level means info.
func (c *ApplicationConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ServerConfig identifies the remote server and the account to archive.
type ServerConfig struct {
	Host   string `yaml:"host"`
	UserID string `yaml:"user_id"`
}

// Validate validates the server configuration. Both fields are optional
// here; the commands that need them check for their presence.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, is.DNSName),
		validation.Field(&c.UserID, is.Digit),
	)
}

// ArchiveConfig holds the four archive directory paths.
type ArchiveConfig struct {
	Statuses string `yaml:"statuses"`
	Media    string `yaml:"media"`
	Content  string `yaml:"content"`
	Photos   string `yaml:"photos"`
}

// ContentConfig controls content derivation.
type ContentConfig struct {
	Overwrite   bool   `yaml:"overwrite"`
	TagFilter   string `yaml:"tag_filter"`
	TagMappings string `yaml:"tag_mappings"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: "info",
		},
		Archive: ArchiveConfig{
			Statuses: "./archive/statuses",
			Media:    "./archive/media",
			Content:  "./archive/content",
			Photos:   "./archive/photos",
		},
	}
}

// requirePath returns a configuration error when a command needs an archive
// path that was never configured.
func requirePath(name, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("archive path %q is not configured: %w", name, apperr.ErrInvalidConfig)
	}
	return value, nil
}
