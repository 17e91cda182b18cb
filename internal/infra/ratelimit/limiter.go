// Package ratelimit implements the per-client request limiter for the
// chart path: a fixed counting window per identity held in a pluggable
// fiber.Storage, with unconditional bypass for privileged keys.
package ratelimit

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"chartsrv/internal/infra/logging"
)

// KeyChecker answers whether a supplied key is in the privileged set.
type KeyChecker interface {
	Has(key string) bool
}

// Decision is the outcome of a Check, carrying what the HTTP layer needs
// to answer a rejected request.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// rateWindow is the serialized per-identity counting window.
type rateWindow struct {
	Start int64 `json:"start"`
	Count int   `json:"count"`
}

// Limiter counts requests per identity in fixed windows. The store is
// injectable so tests run against memory and deployments can share
// windows across instances through Redis.
type Limiter struct {
	limit  int
	window time.Duration
	keys   KeyChecker
	store  fiber.Storage

	mu  sync.Mutex
	now func() time.Time
}

// New builds a limiter. A limit of zero or less disables checking, every
// request is allowed and the store is never touched.
func New(limit int, window time.Duration, keys KeyChecker, store fiber.Storage) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		keys:   keys,
		store:  store,
		now:    time.Now,
	}
}

// Check admits or rejects one request. A privileged key bypasses before
// any quota is read, so bypassed requests never consume window count.
// The increment-and-compare runs under the limiter mutex so concurrent
// hits within one window cannot lose updates.
func (l *Limiter) Check(identity, suppliedKey string) Decision {
	if l.limit <= 0 {
		return Decision{Allowed: true}
	}
	if suppliedKey != "" && l.keys != nil && l.keys.Has(suppliedKey) {
		return Decision{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.load(identity)
	if w == nil || now.Sub(time.UnixMilli(w.Start)) >= l.window {
		w = &rateWindow{Start: now.UnixMilli()}
	}
	w.Count++
	l.save(identity, w)

	if w.Count > l.limit {
		rejectionsTotal.Inc()
		resetAt := time.UnixMilli(w.Start).Add(l.window)
		return Decision{Allowed: false, RetryAfter: resetAt.Sub(now)}
	}
	return Decision{Allowed: true}
}

// load returns nil when no usable window exists. Store failures degrade
// to a fresh window rather than blocking the request.
func (l *Limiter) load(identity string) *rateWindow {
	raw, err := l.store.Get(storageKey(identity))
	if err != nil {
		logging.Warn("Rate window read failed", "identity", identity, "error", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	var w rateWindow
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	return &w
}

func (l *Limiter) save(identity string, w *rateWindow) {
	raw, err := json.Marshal(w)
	if err != nil {
		return
	}
	if err := l.store.Set(storageKey(identity), raw, 2*l.window); err != nil {
		logging.Warn("Rate window write failed", "identity", identity, "error", err)
	}
}

func storageKey(identity string) string {
	return "ratewin:" + identity
}
