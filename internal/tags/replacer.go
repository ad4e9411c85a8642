// Package tags applies a static hashtag rename/drop mapping loaded from a
// YAML file.
package tags

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tootvault/tootvault/internal/apperr"
)

// Replacer rewrites tags according to a key-to-replacement mapping. A key
// mapped to an explicit null drops the tag; a key that is absent passes the
// tag through unchanged.
type Replacer struct {
	path     string
	mappings map[string]*string
	loaded   bool
}

// NewReplacer creates a Replacer backed by the mapping file at path. The
// file must exist and be a regular file; it is not parsed until first use.
func NewReplacer(path string) (*Replacer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tags: mapping file %q not found: %w", path, apperr.ErrInvalidConfig)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("tags: mapping path %q is not a regular file: %w", path, apperr.ErrInvalidConfig)
	}
	return &Replacer{path: path}, nil
}

// load parses the mapping file once and memoizes the result.
func (r *Replacer) load() error {
	if r.loaded {
		return nil
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("tags: read mapping file %q: %w", r.path, err)
	}
	mappings := make(map[string]*string)
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("tags: parse mapping file %q: %w", r.path, err)
	}
	r.mappings = mappings
	r.loaded = true
	return nil
}

// MappingCount returns the number of keys in the mapping file.
func (r *Replacer) MappingCount() (int, error) {
	if err := r.load(); err != nil {
		return 0, err
	}
	return len(r.mappings), nil
}

// ReplaceTags applies the mapping to each tag in order: renamed when mapped
// to a value, dropped when mapped to null, passed through when unmapped.
func (r *Replacer) ReplaceTags(original []string) ([]string, error) {
	if err := r.load(); err != nil {
		return nil, err
	}

	replaced := make([]string, 0, len(original))
	for _, tag := range original {
		mapped, ok := r.mappings[tag]
		if !ok {
			replaced = append(replaced, tag)
			continue
		}
		if mapped == nil {
			continue
		}
		replaced = append(replaced, *mapped)
	}
	return replaced, nil
}
