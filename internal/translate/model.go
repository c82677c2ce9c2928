package translate

import (
	"context"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
)

// Model translates single lines for one fixed language pair.
type Model interface {
	Translate(ctx context.Context, line string) (string, error)
}

// Loader constructs the model for a language pair. Construction is
// expensive; callers go through ModelCache to reuse handles.
type Loader interface {
	Load(ctx context.Context, pair lang.Pair) (Model, error)
}
