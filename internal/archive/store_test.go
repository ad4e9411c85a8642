package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tootvault/tootvault/internal/apperr"
)

func tempStore(t *testing.T, ext string) *store {
	t.Helper()
	s, err := newStore(t.TempDir(), newOptions(nil))
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	s.ext = ext
	return s
}

func TestNewStore_MissingPath(t *testing.T) {
	_, err := newStore(filepath.Join(t.TempDir(), "nope"), newOptions(nil))
	if !errors.Is(err, apperr.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestNewStore_PathIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := newStore(file, newOptions(nil))
	if !errors.Is(err, apperr.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_NoMemberRule(t *testing.T) {
	s, err := newStore(t.TempDir(), newOptions(nil))
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	if _, err := s.load(); !errors.Is(err, apperr.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_FiltersByExtension(t *testing.T) {
	s := tempStore(t, extJSON)
	for _, name := range []string{"1.json", "2.json", "note.md", "photo.jpeg"} {
		if err := os.WriteFile(filepath.Join(s.dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(s.dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	n, err := s.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestLoad_DirectoryMode(t *testing.T) {
	s := tempStore(t, "")
	s.dirMode = true
	for _, name := range []string{"111", "222"} {
		if err := os.Mkdir(filepath.Join(s.dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.dir, "stray.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	members, err := s.list()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("members = %v, want two directory names", members)
	}
	for _, m := range members {
		if m != "111" && m != "222" {
			t.Errorf("unexpected member %q", m)
		}
	}
}

func TestCacheStaleness(t *testing.T) {
	s := tempStore(t, extMD)

	if !s.stale {
		t.Fatal("a fresh store must start stale")
	}

	if _, err := s.load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.stale {
		t.Fatal("a successful listing must mark the cache fresh")
	}

	// A file added behind the cache's back is invisible until invalidation.
	if err := os.WriteFile(filepath.Join(s.dir, "new.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := s.count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("fresh cache re-listed the directory: count = %d", n)
	}

	s.markStale()
	n, err = s.count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count after invalidation = %d, want 1", n)
	}
}

func TestWrite_PolicyExclusiveThenOverwrite(t *testing.T) {
	s := tempStore(t, extMD)

	if err := s.write("a.md", []byte("first")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.write("a.md", []byte("second")); err == nil {
		t.Fatal("exclusive write over an existing file must fail")
	}

	s.overwrite = true
	if err := s.write("a.md", []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := os.ReadFile(s.path("a.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
}

func TestContent_UnsupportedExtension(t *testing.T) {
	s := tempStore(t, extJPEG)
	if _, _, err := s.content("abc"); !errors.Is(err, apperr.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestValidateID(t *testing.T) {
	s := tempStore(t, extJSON)
	s.minIDLen = 3

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid", id: "12345"},
		{name: "empty", id: "", wantErr: true},
		{name: "too short", id: "12", wantErr: true},
		{name: "path traversal", id: "../12345", wantErr: true},
		{name: "nested path", id: "a/12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.validateID(tt.id)
			if tt.wantErr && !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRemove_NotOptedIn(t *testing.T) {
	s := tempStore(t, extMD)
	if _, err := s.remove("abc"); !errors.Is(err, apperr.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}
