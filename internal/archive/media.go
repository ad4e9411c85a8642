package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/tootvault/tootvault/internal/apperr"
	"github.com/tootvault/tootvault/internal/models"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxMediaBytes caps a single media download.
const maxMediaBytes = 100 << 20 // 100 MB

// MediaArchive downloads status media attachments into a flat directory of
// .jpeg files named after the basename of each attachment URL.
type MediaArchive struct {
	store  *store
	client HTTPClient
	logger *slog.Logger
}

// NewMediaArchive opens a media archive rooted at dir. The directory must
// already exist.
func NewMediaArchive(dir string, opts ...Option) (*MediaArchive, error) {
	o := newOptions(opts)
	s, err := newStore(dir, o)
	if err != nil {
		return nil, err
	}
	s.ext = extJPEG
	s.canDelete = true
	s.minIDLen = 1
	client := o.client
	if client == nil {
		client = http.DefaultClient
	}
	return &MediaArchive{store: s, client: client, logger: o.logger}, nil
}

// AddMedia downloads one media file and returns the number of files written
// (0 or 1). Under the default write policy a file that is already archived
// is skipped without a network call, which is what makes repeated runs
// idempotent.
func (a *MediaArchive) AddMedia(ctx context.Context, rawURL string) (int, error) {
	mediaURL, err := url.Parse(rawURL)
	if err != nil || !mediaURL.IsAbs() {
		return 0, fmt.Errorf("archive: media url %q must be absolute: %w", rawURL, apperr.ErrInvalidInput)
	}

	fileName := path.Base(mediaURL.Path)

	if _, err := a.store.load(); err != nil {
		return 0, err
	}
	if !a.store.overwrite && a.store.contains(fileName) {
		a.logger.Debug("skipping media", "file", fileName, "reason", "already archived")
		return 0, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("archive: create request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("archive: fetch %s: %v: %w", mediaURL, err, apperr.ErrTransport)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("archive: fetch %s: unexpected status %d: %w", mediaURL, resp.StatusCode, apperr.ErrTransport)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return 0, fmt.Errorf("archive: read %s: %v: %w", mediaURL, err, apperr.ErrTransport)
	}

	if err := a.store.write(fileName, data); err != nil {
		return 0, err
	}
	a.store.markStale()
	return 1, nil
}

// AddMediaFromStatus downloads every attachment of a status in order and
// returns the number of files written. The first failed download aborts the
// remaining attachments.
func (a *MediaArchive) AddMediaFromStatus(ctx context.Context, status *models.Status) (int, error) {
	added := 0
	for _, attachment := range status.MediaAttachments {
		n, err := a.AddMedia(ctx, attachment.URL)
		if err != nil {
			return added, err
		}
		added += n
	}
	return added, nil
}

// Delete removes a media file by its id (file name without the .jpeg
// extension). An absent id returns false without an error.
func (a *MediaArchive) Delete(id string) (bool, error) {
	return a.store.remove(id)
}

// Count returns the number of media files in the archive.
func (a *MediaArchive) Count() (int, error) {
	return a.store.count()
}

// Files returns the media file names currently in the archive.
func (a *MediaArchive) Files() ([]string, error) {
	return a.store.list()
}

// Path returns the archive directory.
func (a *MediaArchive) Path() string {
	return a.store.dir
}
