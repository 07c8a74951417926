package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// WorkDirPrefix names every request-scoped working directory.
const WorkDirPrefix = "aether-fetch-"

// TempFilePatterns contains all temporary directory patterns used by the server
var TempFilePatterns = []string{
	WorkDirPrefix + "*",
}

// NewWorkDir creates a private directory under base for a single extractor run.
func NewWorkDir(base string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", errors.Wrap(err, "create work root")
	}
	dir, err := os.MkdirTemp(base, WorkDirPrefix+"*")
	if err != nil {
		return "", errors.Wrap(err, "create work dir")
	}
	return dir, nil
}

// RemoveWorkDir deletes dir and everything in it. Failures are logged, never returned.
func RemoveWorkDir(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("Failed to cleanup work dir", "dir", dir, "error", err)
	}
}

// FindByPrefix returns the first regular file in dir whose name starts with prefix.
func FindByPrefix(dir, prefix string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

// CleanupTempFilesByPattern removes entries under base matching patterns that are
// older than maxAge. A zero maxAge removes every match.
func CleanupTempFilesByPattern(ctx context.Context, base string, patterns []string, maxAge time.Duration) int {
	if base == "" {
		base = os.TempDir()
	}
	now := time.Now()
	filesCleaned := 0

	for _, pattern := range patterns {
		select {
		case <-ctx.Done():
			logger.Warn("Cleanup cancelled", "cleaned", filesCleaned)
			return filesCleaned
		default:
		}

		matches, err := filepath.Glob(filepath.Join(base, pattern))
		if err != nil {
			logger.Warn("Error finding temp files", "pattern", pattern, "error", err)
			continue
		}

		for _, path := range matches {
			select {
			case <-ctx.Done():
				logger.Warn("Cleanup cancelled during file operations", "cleaned", filesCleaned)
				return filesCleaned
			default:
			}

			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if maxAge > 0 && now.Sub(info.ModTime()) < maxAge {
				continue
			}

			if err := os.RemoveAll(path); err != nil {
				logger.Warn("Failed to remove stale temp path", "path", path, "error", err)
				continue
			}
			filesCleaned++
			logger.Debug("Cleaned up", "path", filepath.Base(path))
		}
	}

	if filesCleaned > 0 {
		logger.Info("Temp files cleanup completed", "cleaned", filesCleaned)
	}
	return filesCleaned
}

// StartJanitor sweeps stale working directories every interval until ctx ends.
// Directories abandoned by killed extractor runs are reclaimed here.
func StartJanitor(ctx context.Context, base string, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CleanupTempFilesByPattern(ctx, base, TempFilePatterns, maxAge)
			}
		}
	}()
}
