package internal

import (
	"io"
	"log/slog"

	"github.com/tootvault/tootvault/internal/fediverse"
)

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client used for status fetches and media
// downloads.
func WithHTTPClient(client fediverse.HTTPClient) Option {
	return func(a *App) {
		a.client = client
	}
}

// WithOutput redirects user-facing command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.out = w
	}
}
