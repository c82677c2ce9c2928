// Package lang holds the supported language codes and the
// source/target pair that drives translation.
package lang

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a two-letter language code from the supported set.
type Code string

const (
	English   Code = "en"
	Russian   Code = "ru"
	Ukrainian Code = "uk"
	Polish    Code = "pl"
)

// ErrUnsupported marks a language code outside the supported set.
var ErrUnsupported = errors.New("unsupported language")

// Auto is the source selector that requests detection from the
// transcribed text instead of naming a fixed source language.
const Auto = "auto"

var names = map[Code]string{
	English:   "English",
	Russian:   "Russian",
	Ukrainian: "Ukrainian",
	Polish:    "Polish",
}

// Supported returns the supported codes in a stable order.
func Supported() []Code {
	return []Code{English, Russian, Ukrainian, Polish}
}

// Name returns the display name of c, or the code itself if unknown.
func (c Code) Name() string {
	if name, ok := names[c]; ok {
		return name
	}
	return string(c)
}

// Parse resolves a two-letter code or a display name to a supported
// Code. Matching is case-insensitive.
func Parse(s string) (Code, error) {
	trimmed := strings.TrimSpace(s)
	code := Code(strings.ToLower(trimmed))
	if _, ok := names[code]; ok {
		return code, nil
	}
	for c, name := range names {
		if strings.EqualFold(name, trimmed) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// ParseSource resolves a source selector: Auto requests detection,
// anything else must resolve through Parse.
func ParseSource(s string) (Code, bool, error) {
	if strings.EqualFold(strings.TrimSpace(s), Auto) {
		return "", true, nil
	}
	code, err := Parse(s)
	return code, false, err
}

// Pair is an ordered source/target language pair.
type Pair struct {
	Source Code `json:"source"`
	Target Code `json:"target"`
}

// Identity reports whether source and target are the same language.
func (p Pair) Identity() bool {
	return p.Source == p.Target
}

// String renders the pair as "src-tgt".
func (p Pair) String() string {
	return string(p.Source) + "-" + string(p.Target)
}

// Validate checks both codes against the supported set.
func (p Pair) Validate() error {
	if _, ok := names[p.Source]; !ok {
		return fmt.Errorf("%w: source %q", ErrUnsupported, p.Source)
	}
	if _, ok := names[p.Target]; !ok {
		return fmt.Errorf("%w: target %q", ErrUnsupported, p.Target)
	}
	return nil
}
