package translate

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
)

// ModelCache hands out one Model per language pair for the process
// lifetime. Population is lazy and collapsed, so concurrent first
// access constructs the model at most once per pair; there is no
// eviction. Failed loads are not cached and will be retried on the
// next request.
type ModelCache struct {
	loader Loader

	mu     sync.RWMutex
	models map[lang.Pair]Model
	group  singleflight.Group
}

// NewModelCache creates an empty cache over loader.
func NewModelCache(loader Loader) *ModelCache {
	return &ModelCache{
		loader: loader,
		models: make(map[lang.Pair]Model),
	}
}

// GetOrLoad returns the cached model for pair, loading it on first use.
func (c *ModelCache) GetOrLoad(ctx context.Context, pair lang.Pair) (Model, error) {
	c.mu.RLock()
	model, ok := c.models[pair]
	c.mu.RUnlock()
	if ok {
		return model, nil
	}

	v, err, _ := c.group.Do(pair.String(), func() (any, error) {
		c.mu.RLock()
		model, ok := c.models[pair]
		c.mu.RUnlock()
		if ok {
			return model, nil
		}

		model, err := c.loader.Load(ctx, pair)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.models[pair] = model
		c.mu.Unlock()
		return model, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Model), nil
}

// Len reports how many models are resident.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}
