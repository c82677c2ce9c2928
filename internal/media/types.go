// Package media turns uploaded video bytes into a transcribable audio
// track using an external ffmpeg binary.
package media

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Container is a supported video container format.
type Container string

const (
	MP4   Container = "mp4"
	MKV   Container = "mkv"
	AVI   Container = "avi"
	MPEG4 Container = "mpeg4"
)

// ErrUnsupportedContainer marks a container outside the allow-list.
var ErrUnsupportedContainer = errors.New("unsupported container format")

// Containers returns the allow-listed container formats.
func Containers() []Container {
	return []Container{MP4, MKV, AVI, MPEG4}
}

// ParseContainer resolves a container name or file extension,
// case-insensitively and with or without the leading dot.
func ParseContainer(s string) (Container, error) {
	c := Container(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch c {
	case MP4, MKV, AVI, MPEG4:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedContainer, s)
}

// MediaAsset is one video input: raw bytes plus the declared container.
// It lives for a single pipeline run and is never persisted.
type MediaAsset struct {
	Data      []byte
	Container Container
}

// AudioAsset is an extracted audio track stored at a scoped temporary
// path. Whoever owns it must call Release when done.
type AudioAsset struct {
	Path  string
	Codec string
}

// Release deletes the backing file. Safe to call more than once.
func (a *AudioAsset) Release() error {
	if a == nil || a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	a.Path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
