package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tootvault/tootvault/internal/apperr"
	"github.com/tootvault/tootvault/internal/content"
	"github.com/tootvault/tootvault/internal/models"
)

// ContentArchive derives one Markdown post per archived status, named
// <id>.md.
type ContentArchive struct {
	store   *store
	creator *content.Creator
	logger  *slog.Logger
}

// NewContentArchive opens a content archive rooted at dir. The directory
// must already exist.
func NewContentArchive(dir string, opts ...Option) (*ContentArchive, error) {
	o := newOptions(opts)
	s, err := newStore(dir, o)
	if err != nil {
		return nil, err
	}
	s.ext = extMD

	creatorOpts := []content.Option{}
	if o.replacer != nil {
		creatorOpts = append(creatorOpts, content.WithTagReplacer(o.replacer))
	}
	return &ContentArchive{
		store:   s,
		creator: content.NewCreator(creatorOpts...),
		logger:  o.logger,
	}, nil
}

// AddContent derives Markdown posts for the given status files, read from
// the status archive at statusDir, and returns the number written. Statuses
// already derived (under the default policy) or missing a configured
// required tag are skipped without being counted.
func (a *ContentArchive) AddContent(statusFiles []string, statusDir string) (int, error) {
	if statusDir == "" {
		return 0, fmt.Errorf("archive: status archive path must not be empty: %w", apperr.ErrInvalidInput)
	}
	if _, err := a.store.load(); err != nil {
		return 0, err
	}

	added := 0
	for _, statusFile := range statusFiles {
		id := strings.TrimSuffix(statusFile, extJSON)
		fileName := id + extMD

		if !a.store.overwrite && a.store.contains(fileName) {
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

		doc, err := a.creator.Document(status, nil)
		if err != nil {
			a.store.markStale()
			return added, err
		}
		if err := a.store.write(fileName, []byte(doc)); err != nil {
			a.store.markStale()
			return added, err
		}
		added++
	}

	a.store.markStale()
	return added, nil
}

// Content returns the raw Markdown of a derived post. A missing id is a soft
// miss: (nil, false, nil).
func (a *ContentArchive) Content(id string) ([]byte, bool, error) {
	return a.store.content(id)
}

// Count returns the number of derived posts in the archive.
func (a *ContentArchive) Count() (int, error) {
	return a.store.count()
}

// Files returns the derived post file names currently in the archive.
func (a *ContentArchive) Files() ([]string, error) {
	return a.store.list()
}

// readStatusFile loads and decodes one archived status JSON file.
func readStatusFile(path string) (*models.Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("archive: read status %s: %w", path, err)
	}
	var status models.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("archive: decode status %s: %w", path, err)
	}
	return &status, nil
}
