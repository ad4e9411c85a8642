package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tootvault/tootvault/internal/apperr"
	"github.com/tootvault/tootvault/internal/checksum"
	"github.com/tootvault/tootvault/internal/content"
)

// photoCategory is always present in the front matter of a photo post.
const photoCategory = "Photos"

// PhotoArchive derives one directory per status with media: an index.md plus
// copies of the status's already-downloaded attachments. Overwriting is not
// supported here; replacing a gallery would mean re-copying media into an
// existing directory, which stays a manual job.
type PhotoArchive struct {
	store      *store
	creator    *content.Creator
	categories []string
	logger     *slog.Logger
}

// NewPhotoArchive opens a photo archive rooted at dir. The directory must
// already exist. WithOverwrite is ignored.
func NewPhotoArchive(dir string, opts ...Option) (*PhotoArchive, error) {
	o := newOptions(opts)
	s, err := newStore(dir, o)
	if err != nil {
		return nil, err
	}
	s.dirMode = true
	s.overwrite = false

	creatorOpts := []content.Option{}
	if o.replacer != nil {
		creatorOpts = append(creatorOpts, content.WithTagReplacer(o.replacer))
	}
	return &PhotoArchive{
		store:      s,
		creator:    content.NewCreator(creatorOpts...),
		categories: append([]string{photoCategory}, o.categories...),
		logger:     o.logger,
	}, nil
}

// AddContent derives photo galleries for the given status files and returns
// the number created. Statuses already derived, missing a configured
// required tag, or without any media are skipped without being counted.
// Media files must already exist in the media archive at mediaDir; this
// archive only relocates bytes, it never fetches them.
func (a *PhotoArchive) AddContent(statusFiles []string, statusDir, mediaDir string) (int, error) {
	if statusDir == "" {
		return 0, fmt.Errorf("archive: status archive path must not be empty: %w", apperr.ErrInvalidInput)
	}
	if mediaDir == "" {
		return 0, fmt.Errorf("archive: media archive path must not be empty: %w", apperr.ErrInvalidInput)
	}
	if _, err := a.store.load(); err != nil {
		return 0, err
	}

	added := 0
	for _, statusFile := range statusFiles {
		id := strings.TrimSuffix(statusFile, extJSON)

		if a.store.contains(id) {
			a.logger.Debug("skipping status", "id", id, "reason", "already derived")
			continue
		}

		status, err := readStatusFile(filepath.Join(statusDir, statusFile))
		if err != nil {
			a.store.markStale()
			return added, err
		}

		if !a.store.matchesFilter(status) {
			a.logger.Debug("skipping status", "id", id, "reason", "tag filter not matched")
			continue
		}
		if !status.HasMedia() {
			a.logger.Debug("skipping status", "id", id, "reason", "no media attachments")
			continue
		}

		doc, err := a.creator.Document(status, a.categories)
		if err != nil {
			a.store.markStale()
			return added, err
		}

		dirPath := a.store.path(id)
		if err := os.Mkdir(dirPath, 0o755); err != nil {
			a.store.markStale()
			return added, fmt.Errorf("archive: create %s: %w", id, err)
		}
		if err := writeExclusive(filepath.Join(dirPath, "index.md"), []byte(doc)); err != nil {
			a.store.markStale()
			return added, err
		}

		for _, attachment := range status.MediaAttachments {
			mediaFile := path.Base(attachment.URL)
			if err := copyMedia(filepath.Join(mediaDir, mediaFile), filepath.Join(dirPath, mediaFile)); err != nil {
				a.store.markStale()
				return added, err
			}
		}

		added++
	}

	a.store.markStale()
	return added, nil
}

// Count returns the number of galleries in the archive.
func (a *PhotoArchive) Count() (int, error) {
	return a.store.count()
}

// Dirs returns the gallery directory names currently in the archive.
func (a *PhotoArchive) Dirs() ([]string, error) {
	return a.store.list()
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("archive: write %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("archive: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("archive: close %s: %w", path, err)
	}
	return nil
}

// copyMedia copies one already-downloaded media file into a gallery and
// verifies the copy landed intact.
func copyMedia(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("archive: read media %s: %w", src, err)
	}
	want := checksum.Sum(data)

	if err := writeExclusive(dst, data); err != nil {
		return err
	}

	written, err := os.ReadFile(dst)
	if err != nil {
		return fmt.Errorf("archive: verify media %s: %w", dst, err)
	}
	if checksum.Sum(written) != want {
		return fmt.Errorf("archive: media copy %s is corrupt", dst)
	}
	return nil
}
