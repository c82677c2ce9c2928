package file

import (
	"os"
	"path/filepath"
	"time"
)

// FindNewerThan returns files under dir modified after the given time.
func FindNewerThan(dir string, after time.Time) ([]string, error) {
	return findFiles(dir, func(info os.FileInfo) bool {
		return info.ModTime().After(after)
	})
}

// FindOlderThan returns files under dir last modified before the cutoff.
func FindOlderThan(dir string, cutoff time.Time) ([]string, error) {
	return findFiles(dir, func(info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

func findFiles(dir string, match func(os.FileInfo) bool) ([]string, error) {
	var found []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && match(info) {
			found = append(found, path)
		}
		return nil
	})

	return found, err
}
