package keys

import (
	"context"
	"time"

	"chartsrv/internal/infra/logging"
)

// Repository is the source of dynamically managed keys.
type Repository interface {
	LoadKeys(ctx context.Context) ([]string, error)
}

// Reloader keeps the cache in sync with the repository. Static seed keys
// are merged into every load so config-provisioned keys survive refreshes.
// A failed load leaves the previous set serving.
type Reloader struct {
	repo     Repository
	cache    *Cache
	interval time.Duration
	seed     []string
}

func NewReloader(repo Repository, cache *Cache, interval time.Duration, seed ...string) *Reloader {
	return &Reloader{repo: repo, cache: cache, interval: interval, seed: seed}
}

// LoadOnce performs a single load and swap. On error the cache is left
// untouched.
func (r *Reloader) LoadOnce(ctx context.Context) error {
	loaded, err := r.repo.LoadKeys(ctx)
	if err != nil {
		return err
	}
	r.cache.Replace(append(loaded, r.seed...))
	return nil
}

// Start refreshes the cache on the configured interval until ctx is done.
// It returns immediately; the refresh loop runs in its own goroutine.
func (r *Reloader) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.LoadOnce(ctx); err != nil {
					logging.Error("Failed to reload privileged keys", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
