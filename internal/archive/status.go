package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tootvault/tootvault/internal/models"
)

// StatusArchive persists raw status objects as pretty-printed JSON files
// named <id>.json.
type StatusArchive struct {
	store  *store
	logger *slog.Logger
}

// NewStatusArchive opens a status archive rooted at dir. The directory must
// already exist.
func NewStatusArchive(dir string, opts ...Option) (*StatusArchive, error) {
	o := newOptions(opts)
	s, err := newStore(dir, o)
	if err != nil {
		return nil, err
	}
	s.ext = extJSON
	s.canDelete = true
	s.minIDLen = 1
	return &StatusArchive{store: s, logger: o.logger}, nil
}

// AddStatuses writes any statuses not already present and returns the number
// actually written. Under the default write policy a status whose file
// already exists is skipped without being counted.
func (a *StatusArchive) AddStatuses(statuses []models.Status) (int, error) {
	if _, err := a.store.load(); err != nil {
		return 0, err
	}

	added := 0
	for i := range statuses {
		status := &statuses[i]
		fileName := status.ID + extJSON

		if !a.store.overwrite && a.store.contains(fileName) {
			a.logger.Debug("skipping status", "id", status.ID, "reason", "already archived")
			continue
		}

		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			a.store.markStale()
			return added, fmt.Errorf("archive: encode status %s: %w", status.ID, err)
		}
		if err := a.store.write(fileName, data); err != nil {
			a.store.markStale()
			return added, err
		}
		added++
	}

	a.store.markStale()
	return added, nil
}

// Status reads a status back from the archive. A missing id is a soft miss:
// (nil, false, nil).
func (a *StatusArchive) Status(id string) (*models.Status, bool, error) {
	data, ok, err := a.store.content(id)
	if err != nil || !ok {
		return nil, false, err
	}
	var status models.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, false, fmt.Errorf("archive: decode status %s: %w", id, err)
	}
	return &status, true, nil
}

// Delete removes a status file. It returns true only when a file was
// actually removed; deleting an absent id returns false without an error.
func (a *StatusArchive) Delete(id string) (bool, error) {
	return a.store.remove(id)
}

// Count returns the number of statuses in the archive.
func (a *StatusArchive) Count() (int, error) {
	return a.store.count()
}

// Files returns the status file names currently in the archive.
func (a *StatusArchive) Files() ([]string, error) {
	return a.store.list()
}

// Path returns the archive directory.
func (a *StatusArchive) Path() string {
	return a.store.dir
}
