package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tootvault/tootvault/internal/models"
	"github.com/tootvault/tootvault/internal/testutil"
)

func photoFixture(t *testing.T) (statusDir, mediaDir string, status models.Status, fileName string) {
	t.Helper()
	statusDir = t.TempDir()
	mediaDir = t.TempDir()
	status = testutil.SampleStatus("112793425453345288")
	fileName = testutil.WriteStatus(t, statusDir, status)
	testutil.WriteFile(t, mediaDir, status.ID+".jpeg", []byte("jpeg bytes"))
	return statusDir, mediaDir, status, fileName
}

func TestPhotoAddContent_CreatesGallery(t *testing.T) {
	statusDir, mediaDir, status, fileName := photoFixture(t)

	dir := t.TempDir()
	a, err := NewPhotoArchive(dir)
	if err != nil {
		t.Fatalf("NewPhotoArchive: %v", err)
	}

	added, err := a.AddContent([]string{fileName}, statusDir, mediaDir)
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	index, err := os.ReadFile(filepath.Join(dir, status.ID, "index.md"))
	if err != nil {
		t.Fatalf("read index.md: %v", err)
	}
	if !strings.Contains(string(index), "- Photos") {
		t.Errorf("index.md missing the Photos category:\n%s", index)
	}

	media, err := os.ReadFile(filepath.Join(dir, status.ID, status.ID+".jpeg"))
	if err != nil {
		t.Fatalf("read copied media: %v", err)
	}
	if string(media) != "jpeg bytes" {
		t.Errorf("copied media = %q", media)
	}
}

func TestPhotoAddContent_RequiresMedia(t *testing.T) {
	statusDir := t.TempDir()
	mediaDir := t.TempDir()
	status := testutil.SampleStatus("112793425453345288")
	status.MediaAttachments = nil
	fileName := testutil.WriteStatus(t, statusDir, status)

	dir := t.TempDir()
	a, err := NewPhotoArchive(dir)
	if err != nil {
		t.Fatalf("NewPhotoArchive: %v", err)
	}

	added, err := a.AddContent([]string{fileName}, statusDir, mediaDir)
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
	if _, statErr := os.Stat(filepath.Join(dir, status.ID)); statErr == nil {
		t.Error("a status without media must not produce a gallery")
	}
}

func TestPhotoAddContent_SkipsExisting(t *testing.T) {
	statusDir, mediaDir, _, fileName := photoFixture(t)

	a, err := NewPhotoArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewPhotoArchive: %v", err)
	}

	if _, err := a.AddContent([]string{fileName}, statusDir, mediaDir); err != nil {
		t.Fatalf("first AddContent: %v", err)
	}
	added, err := a.AddContent([]string{fileName}, statusDir, mediaDir)
	if err != nil {
		t.Fatalf("second AddContent: %v", err)
	}
	if added != 0 {
		t.Errorf("second add counted %d, want 0", added)
	}
}

func TestPhotoAddContent_OverwriteIsPinnedOff(t *testing.T) {
	statusDir, mediaDir, _, fileName := photoFixture(t)

	// WithOverwrite must be ignored for photo galleries.
	a, err := NewPhotoArchive(t.TempDir(), WithOverwrite())
	if err != nil {
		t.Fatalf("NewPhotoArchive: %v", err)
	}

	if _, err := a.AddContent([]string{fileName}, statusDir, mediaDir); err != nil {
		t.Fatalf("first AddContent: %v", err)
	}
	added, err := a.AddContent([]string{fileName}, statusDir, mediaDir)
	if err != nil {
		t.Fatalf("second AddContent: %v", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0: photo galleries are never overwritten", added)
	}
}

func TestPhotoAddContent_TagFilterExcludes(t *testing.T) {
	statusDir, mediaDir, status, fileName := photoFixture(t)

	dir := t.TempDir()
	a, err := NewPhotoArchive(dir, WithTagFilter("photography"))
	if err != nil {
		t.Fatalf("NewPhotoArchive: %v", err)
	}

	added, err := a.AddContent([]string{fileName}, statusDir, mediaDir)
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
	if _, statErr := os.Stat(filepath.Join(dir, status.ID)); statErr == nil {
		t.Error("filtered status must not produce a gallery")
	}
}

func TestPhotoAddContent_MissingMediaFileFails(t *testing.T) {
	statusDir := t.TempDir()
	mediaDir := t.TempDir() // media never downloaded
	status := testutil.SampleStatus("112793425453345288")
	fileName := testutil.WriteStatus(t, statusDir, status)

	a, err := NewPhotoArchive(t.TempDir())
	if err != nil {
		t.Fatalf("NewPhotoArchive: %v", err)
	}

	if _, err := a.AddContent([]string{fileName}, statusDir, mediaDir); err == nil {
		t.Fatal("expected an error when the media archive lacks the file")
	}
}

func TestPhotoAddContent_ExtraCategories(t *testing.T) {
	statusDir, mediaDir, status, fileName := photoFixture(t)

	dir := t.TempDir()
	a, err := NewPhotoArchive(dir, WithCategories("Garden"))
	if err != nil {
		t.Fatalf("NewPhotoArchive: %v", err)
	}

	if _, err := a.AddContent([]string{fileName}, statusDir, mediaDir); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	index, err := os.ReadFile(filepath.Join(dir, status.ID, "index.md"))
	if err != nil {
		t.Fatalf("read index.md: %v", err)
	}
	if !strings.Contains(string(index), "- Photos") || !strings.Contains(string(index), "- Garden") {
		t.Errorf("index.md missing categories:\n%s", index)
	}
}
