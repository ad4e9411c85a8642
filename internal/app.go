// Package internal wires configuration, the fediverse client, and the four
// archives into the commands the CLI exposes.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/tootvault/tootvault/internal/apperr"
	"github.com/tootvault/tootvault/internal/archive"
	"github.com/tootvault/tootvault/internal/fediverse"
	"github.com/tootvault/tootvault/internal/tags"
)

// App holds the shared state of one command invocation.
type App struct {
	cfg    *Config
	logger *slog.Logger
	client fediverse.HTTPClient
	out    io.Writer
}

// New creates the application from the given options. A configuration is
// required.
func New(opts ...Option) (*App, error) {
	app := &App{}
	for _, opt := range opts {
		opt(app)
	}
	if app.cfg == nil {
		return nil, fmt.Errorf("config is required: %w", apperr.ErrInvalidConfig)
	}
	if app.logger == nil {
		app.logger = slog.Default()
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	return app, nil
}

// newClient builds the fediverse client for the configured host.
func (a *App) newClient(host string) (*fediverse.Client, error) {
	opts := []fediverse.Option{}
	if a.client != nil {
		opts = append(opts, fediverse.WithHTTPClient(a.client))
	}
	return fediverse.NewClient(host, opts...)
}

// LookupUser resolves an account name on the given host and prints the
// account details.
func (a *App) LookupUser(ctx context.Context, host, acct string) error {
	client, err := a.newClient(host)
	if err != nil {
		return err
	}

	account, err := client.LookupUser(ctx, acct)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "User id:      %s\n", account.ID)
	fmt.Fprintf(a.out, "Username:     %s\n", account.Username)
	fmt.Fprintf(a.out, "Display name: %s\n", account.DisplayName)
	fmt.Fprintf(a.out, "Profile:      %s\n", account.URL)
	return nil
}

// UpdateArchive fetches the configured user's recent statuses, adds any new
// ones to the status archive, and downloads their media attachments.
func (a *App) UpdateArchive(ctx context.Context, skipMedia bool) error {
	if a.cfg.Server.Host == "" || a.cfg.Server.UserID == "" {
		return fmt.Errorf("server host and user id must be configured: %w", apperr.ErrInvalidConfig)
	}
	statusDir, err := requirePath("archive.statuses", a.cfg.Archive.Statuses)
	if err != nil {
		return err
	}

	client, err := a.newClient(a.cfg.Server.Host)
	if err != nil {
		return err
	}

	a.logger.Info("fetching statuses", "host", a.cfg.Server.Host, "user_id", a.cfg.Server.UserID)
	statuses, err := client.FetchStatuses(ctx, a.cfg.Server.UserID)
	if err != nil {
		return err
	}

	statusArchive, err := archive.NewStatusArchive(statusDir, archive.WithLogger(a.logger))
	if err != nil {
		return err
	}

	added, err := statusArchive.AddStatuses(statuses)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Statuses added: %d\n", added)

	if skipMedia {
		return nil
	}

	mediaDir, err := requirePath("archive.media", a.cfg.Archive.Media)
	if err != nil {
		return err
	}
	mediaOpts := []archive.Option{archive.WithLogger(a.logger)}
	if a.client != nil {
		mediaOpts = append(mediaOpts, archive.WithHTTPClient(a.client))
	}
	mediaArchive, err := archive.NewMediaArchive(mediaDir, mediaOpts...)
	if err != nil {
		return err
	}

	downloaded := 0
	for i := range statuses {
		n, err := mediaArchive.AddMediaFromStatus(ctx, &statuses[i])
		if err != nil {
			return err
		}
		downloaded += n
	}
	fmt.Fprintf(a.out, "Media files added: %d\n", downloaded)
	return nil
}

// UpdateContent derives Markdown posts for every archived status.
func (a *App) UpdateContent(ctx context.Context, force bool) error {
	statusDir, err := requirePath("archive.statuses", a.cfg.Archive.Statuses)
	if err != nil {
		return err
	}
	contentDir, err := requirePath("archive.content", a.cfg.Archive.Content)
	if err != nil {
		return err
	}

	statusArchive, err := archive.NewStatusArchive(statusDir, archive.WithLogger(a.logger))
	if err != nil {
		return err
	}
	statusFiles, err := statusArchive.Files()
	if err != nil {
		return err
	}
	if len(statusFiles) == 0 {
		return fmt.Errorf("status archive %q is empty", statusDir)
	}

	opts, err := a.derivationOptions(force)
	if err != nil {
		return err
	}
	contentArchive, err := archive.NewContentArchive(contentDir, opts...)
	if err != nil {
		return err
	}

	added, err := contentArchive.AddContent(statusFiles, statusDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Posts added: %d\n", added)
	return nil
}

// UpdatePhotos derives photo galleries for every archived status with
// media.
func (a *App) UpdatePhotos(ctx context.Context, force bool) error {
	statusDir, err := requirePath("archive.statuses", a.cfg.Archive.Statuses)
	if err != nil {
		return err
	}
	mediaDir, err := requirePath("archive.media", a.cfg.Archive.Media)
	if err != nil {
		return err
	}
	photoDir, err := requirePath("archive.photos", a.cfg.Archive.Photos)
	if err != nil {
		return err
	}

	statusArchive, err := archive.NewStatusArchive(statusDir, archive.WithLogger(a.logger))
	if err != nil {
		return err
	}
	statusFiles, err := statusArchive.Files()
	if err != nil {
		return err
	}
	if len(statusFiles) == 0 {
		return fmt.Errorf("status archive %q is empty", statusDir)
	}

	opts, err := a.derivationOptions(force)
	if err != nil {
		return err
	}
	photoArchive, err := archive.NewPhotoArchive(photoDir, opts...)
	if err != nil {
		return err
	}

	added, err := photoArchive.AddContent(statusFiles, statusDir, mediaDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Galleries added: %d\n", added)
	return nil
}

// DeleteStatus removes a status and its media files from the archives.
func (a *App) DeleteStatus(ctx context.Context, statusID string) error {
	statusDir, err := requirePath("archive.statuses", a.cfg.Archive.Statuses)
	if err != nil {
		return err
	}
	mediaDir, err := requirePath("archive.media", a.cfg.Archive.Media)
	if err != nil {
		return err
	}

	statusArchive, err := archive.NewStatusArchive(statusDir, archive.WithLogger(a.logger))
	if err != nil {
		return err
	}
	mediaArchive, err := archive.NewMediaArchive(mediaDir, archive.WithLogger(a.logger))
	if err != nil {
		return err
	}

	status, ok, err := statusArchive.Status(statusID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(a.out, "Status %s not found in the archive\n", statusID)
		return nil
	}

	completed := true
	for _, media := range status.MediaAttachments {
		mediaID := strings.TrimSuffix(path.Base(media.URL), ".jpeg")
		deleted, err := mediaArchive.Delete(mediaID)
		if err != nil {
			return err
		}
		if !deleted {
			a.logger.Warn("unable to delete media", "id", mediaID)
			completed = false
		}
	}

	deleted, err := statusArchive.Delete(statusID)
	if err != nil {
		return err
	}
	if !deleted {
		completed = false
	}

	if completed {
		fmt.Fprintf(a.out, "Status %s deleted\n", statusID)
	} else {
		fmt.Fprintf(a.out, "Status %s only partially deleted\n", statusID)
	}
	return nil
}

// derivationOptions builds the shared archive options for the content and
// photo commands from configuration.
func (a *App) derivationOptions(force bool) ([]archive.Option, error) {
	opts := []archive.Option{archive.WithLogger(a.logger)}
	if force || a.cfg.Content.Overwrite {
		opts = append(opts, archive.WithOverwrite())
	}
	if a.cfg.Content.TagFilter != "" {
		opts = append(opts, archive.WithTagFilter(a.cfg.Content.TagFilter))
	}
	if a.cfg.Content.TagMappings != "" {
		replacer, err := tags.NewReplacer(a.cfg.Content.TagMappings)
		if err != nil {
			return nil, err
		}
		opts = append(opts, archive.WithTagReplacer(replacer))
	}
	return opts, nil
}
