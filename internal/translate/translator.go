// Package translate rewrites caption text line by line using
// per-language-pair translation models, leaving structure untouched.
package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/caption"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
)

// DefaultLineCap bounds per-line model input; longer lines are cut.
const DefaultLineCap = 512

// TranslationError reports a failed translation pass.
type TranslationError struct {
	Pair   lang.Pair
	Reason string
	Err    error
}

func (e *TranslationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("translation failed (%s): %s", e.Pair, e.Reason)
	}
	return fmt.Sprintf("translation failed (%s): %s: %v", e.Pair, e.Reason, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// Translator applies per-line translation to caption documents.
type Translator struct {
	cache *ModelCache
	log   zerolog.Logger

	mu      sync.RWMutex
	lineCap int
}

// Option tweaks a Translator.
type Option func(*Translator)

// WithLineCap overrides the per-line truncation cap.
func WithLineCap(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.lineCap = n
		}
	}
}

// NewTranslator creates a document translator over the given cache.
func NewTranslator(cache *ModelCache, logger zerolog.Logger, opts ...Option) *Translator {
	t := &Translator{
		cache:   cache,
		lineCap: DefaultLineCap,
		log:     logger.With().Str("component", "translator").Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetLineCap changes the truncation cap for future calls. Values below
// one are ignored.
func (t *Translator) SetLineCap(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	t.lineCap = n
	t.mu.Unlock()
}

// LineCap reports the current per-line truncation cap.
func (t *Translator) LineCap() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lineCap
}

// Translate returns doc with its textual lines translated for pair.
// The identity pair returns the document as is without touching the
// model cache. Index and timing lines pass through byte for byte, each
// textual line is translated on its own, and a single failed line
// fails the whole document.
func (t *Translator) Translate(ctx context.Context, doc caption.Document, pair lang.Pair) (caption.Document, error) {
	if err := pair.Validate(); err != nil {
		return caption.Document{}, &TranslationError{Pair: pair, Reason: "invalid language pair", Err: err}
	}
	if pair.Identity() {
		return doc, nil
	}

	model, err := t.cache.GetOrLoad(ctx, pair)
	if err != nil {
		return caption.Document{}, &TranslationError{Pair: pair, Reason: "model load failed", Err: err}
	}

	lineCap := t.LineCap()
	lines := strings.Split(caption.Serialize(doc), "\n")
	translated := 0
	for i, line := range lines {
		if caption.ClassifyLine(line) != caption.LineTextual {
			continue
		}
		out, err := model.Translate(ctx, truncate(line, lineCap))
		if err != nil {
			return caption.Document{}, &TranslationError{Pair: pair, Reason: fmt.Sprintf("line %d failed", i+1), Err: err}
		}
		if strings.TrimSpace(out) == "" {
			return caption.Document{}, &TranslationError{Pair: pair, Reason: fmt.Sprintf("line %d came back empty", i+1)}
		}
		lines[i] = out
		translated++
	}

	result, err := caption.ParseString(strings.Join(lines, "\n"))
	if err != nil {
		return caption.Document{}, &TranslationError{Pair: pair, Reason: "translated document is invalid", Err: err}
	}

	t.log.Debug().Str("pair", pair.String()).Int("lines", translated).Msg("document translated")
	return result, nil
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
