// Package archive implements the directory-backed archives: raw statuses,
// downloaded media, derived Markdown content, and photo galleries. Each
// archive composes the same base store, which owns one directory and a
// staleness-tracked listing of its members.
package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tootvault/tootvault/internal/apperr"
	"github.com/tootvault/tootvault/internal/models"
)

// Member file extensions for the file-mode archives.
const (
	extJSON = ".json"
	extMD   = ".md"
	extJPEG = ".jpeg"
)

// Option configures an archive at construction time.
type Option func(*options)

type options struct {
	overwrite  bool
	tagFilter  string
	logger     *slog.Logger
	client     HTTPClient
	replacer   TagReplacer
	categories []string
}

// WithOverwrite switches the write policy from create-exclusive to
// truncate-and-write, replacing files that already exist.
func WithOverwrite() Option {
	return func(o *options) { o.overwrite = true }
}

// WithTagFilter restricts content derivation to statuses carrying the tag.
func WithTagFilter(tag string) Option {
	return func(o *options) { o.tagFilter = tag }
}

// WithLogger sets the logger used for per-item skip diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient sets the client used for media downloads.
func WithHTTPClient(c HTTPClient) Option {
	return func(o *options) { o.client = c }
}

// WithTagReplacer sets the replacer applied to tags during front matter
// generation.
func WithTagReplacer(r TagReplacer) Option {
	return func(o *options) { o.replacer = r }
}

// WithCategories adds extra front matter categories to every derived post.
func WithCategories(categories ...string) Option {
	return func(o *options) { o.categories = append(o.categories, categories...) }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// TagReplacer rewrites a tag list during content derivation.
type TagReplacer interface {
	ReplaceTags(tags []string) ([]string, error)
}

// store is the directory-backed base every archive builds on. Members are
// either files with a fixed extension or immediate subdirectories. The
// member listing is cached; the cache is trustworthy only while stale is
// false, and every mutation of the directory must flip it back to stale.
type store struct {
	dir       string
	ext       string // member extension; empty in directory mode
	dirMode   bool
	overwrite bool
	tagFilter string
	logger    *slog.Logger

	members []string
	stale   bool

	minIDLen  int
	canDelete bool
}

func newStore(dir string, o *options) (*store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("archive: path %q not found: %w", dir, apperr.ErrInvalidConfig)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive: path %q is not a directory: %w", dir, apperr.ErrInvalidConfig)
	}
	return &store{
		dir:       dir,
		overwrite: o.overwrite,
		tagFilter: o.tagFilter,
		logger:    o.logger,
		stale:     true,
	}, nil
}

// load re-lists the directory when the cache is stale and returns the member
// count. A fresh cache is returned without touching the disk.
func (s *store) load() (int, error) {
	if s.ext == "" && !s.dirMode {
		return 0, fmt.Errorf("archive: no member rule configured for %q: %w", s.dir, apperr.ErrInvalidConfig)
	}
	if !s.stale {
		return len(s.members), nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("archive: list %q: %w", s.dir, err)
	}

	members := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s.dirMode {
			if entry.IsDir() {
				members = append(members, entry.Name())
			}
			continue
		}
		if !entry.IsDir() && filepath.Ext(entry.Name()) == s.ext {
			members = append(members, entry.Name())
		}
	}

	s.members = members
	s.stale = false
	return len(s.members), nil
}

// count returns the number of members, re-listing only when stale.
func (s *store) count() (int, error) {
	return s.load()
}

// list returns the cached member names, re-listing only when stale.
func (s *store) list() ([]string, error) {
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s.members, nil
}

func (s *store) contains(name string) bool {
	for _, m := range s.members {
		if m == name {
			return true
		}
	}
	return false
}

func (s *store) markStale() {
	s.stale = true
}

// matchesFilter applies the optional required-tag filter to a status.
func (s *store) matchesFilter(status *models.Status) bool {
	return s.tagFilter == "" || status.HasTag(s.tagFilter)
}

// validateID rejects ids that are empty, shorter than the archive's minimum,
// or not a plain file name.
func (s *store) validateID(id string) error {
	if id == "" {
		return fmt.Errorf("archive: content id must not be empty: %w", apperr.ErrInvalidInput)
	}
	if len(id) < s.minIDLen {
		return fmt.Errorf("archive: content id %q shorter than %d characters: %w", id, s.minIDLen, apperr.ErrInvalidInput)
	}
	if id != filepath.Base(id) || strings.Contains(id, "..") {
		return fmt.Errorf("archive: content id %q is not a plain name: %w", id, apperr.ErrInvalidInput)
	}
	return nil
}

func (s *store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// write stores data under the configured write policy: exclusive-create by
// default, truncate when overwrite is enabled.
func (s *store) write(name string, data []byte) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if s.overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(s.path(name), flags, 0o644)
	if err != nil {
		return fmt.Errorf("archive: write %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("archive: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("archive: close %s: %w", name, err)
	}
	return nil
}

// content reads a member file by id. Absence is a soft miss, reported as
// (nil, false, nil) rather than an error.
func (s *store) content(id string) ([]byte, bool, error) {
	if s.ext != extJSON && s.ext != extMD {
		return nil, false, fmt.Errorf("archive: content reads not supported for %q members: %w", s.ext, apperr.ErrUnsupported)
	}
	if err := s.validateID(id); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(id + s.ext))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("archive: read %s: %w", id+s.ext, err)
	}
	return data, true, nil
}

// remove deletes a member file by id. Removal of an absent file, or any
// filesystem failure, is reported as false without an error: deletion is
// best-effort cleanup. The cache goes stale only when a file actually went
// away.
func (s *store) remove(id string) (bool, error) {
	if !s.canDelete {
		return false, fmt.Errorf("archive: deletion not supported for %q: %w", s.dir, apperr.ErrUnsupported)
	}
	if err := s.validateID(id); err != nil {
		return false, err
	}
	if err := os.Remove(s.path(id + s.ext)); err != nil {
		s.logger.Debug("delete failed", "id", id, "error", err)
		return false, nil
	}
	s.markStale()
	return true, nil
}
