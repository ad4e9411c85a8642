// Package testutil provides shared test helpers for building archive
// directories and sample statuses.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tootvault/tootvault/internal/models"
)

// SampleStatus returns a status with content, tags, and media suitable for
// most tests.
func SampleStatus(id string) models.Status {
	return models.Status{
		ID:        id,
		CreatedAt: "2024-07-20T03:29:08.579Z",
		URL:       "https://example.social/@archivist/" + id,
		Content:   "<p>Hello Blowerians! There's been an uptick in reported posts lately, for probably obvious reasons.</p>",
		Tags: []models.Tag{
			{Name: "australiannatives"},
			{Name: "weather"},
		},
		MediaAttachments: []models.MediaAttachment{
			{URL: "https://files.example.social/media/" + id + ".jpeg"},
		},
	}
}

// WriteStatus writes a status into dir as <id>.json the way the status
// archive does.
func WriteStatus(t *testing.T, dir string, status models.Status) string {
	t.Helper()
	data, err := json.MarshalIndent(&status, "", "  ")
	if err != nil {
		t.Fatalf("encode status: %v", err)
	}
	name := status.ID + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write status: %v", err)
	}
	return name
}

// WriteFile writes a file with the given content into dir and returns its
// path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
