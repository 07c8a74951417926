package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWorkDir(t *testing.T) {
	base := t.TempDir()

	dir, err := NewWorkDir(base)
	if err != nil {
		t.Fatalf("NewWorkDir failed: %v", err)
	}
	if filepath.Dir(dir) != base || !strings.HasPrefix(filepath.Base(dir), WorkDirPrefix) {
		t.Errorf("unexpected work dir %q", dir)
	}

	if err := os.WriteFile(filepath.Join(dir, "temp_1.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	RemoveWorkDir(dir)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected work dir to be removed, stat err = %v", err)
	}

	RemoveWorkDir(dir)
	RemoveWorkDir("")
}

func TestFindByPrefix(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cookies.txt", "temp_42.webm"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "temp_42.d"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok := FindByPrefix(dir, "temp_42")
	if !ok || filepath.Base(got) != "temp_42.webm" {
		t.Errorf("expected temp_42.webm, got %q (%v)", got, ok)
	}

	if _, ok := FindByPrefix(dir, "temp_99"); ok {
		t.Error("expected no match")
	}
}

func TestCleanupTempFilesByPattern(t *testing.T) {
	base := t.TempDir()

	stale, _ := NewWorkDir(base)
	fresh, _ := NewWorkDir(base)
	other := filepath.Join(base, "keep-me")
	if err := os.Mkdir(other, 0o755); err != nil {
		t.Fatal(err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	n := CleanupTempFilesByPattern(context.Background(), base, TempFilePatterns, time.Hour)
	if n != 1 {
		t.Errorf("expected 1 removal, got %d", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale dir should be gone")
	}
	for _, p := range []string{fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should survive: %v", p, err)
		}
	}
}
