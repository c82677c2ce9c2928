package file

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ReplaceExt swaps the extension of path with ext ("srt" or ".srt").
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// UniquePath returns a collision-free path under dir with the given
// prefix and extension.
func UniquePath(dir, prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext))
}
