package ratelimit

import (
	"errors"
	"testing"
	"time"

	memoryStorage "github.com/gofiber/storage/memory/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type keySet map[string]bool

func (k keySet) Has(key string) bool { return k[key] }

// countingStore records traffic so tests can assert the store was never
// consulted.
type countingStore struct {
	gets int
	sets int
}

func (s *countingStore) Get(key string) ([]byte, error) { s.gets++; return nil, nil }
func (s *countingStore) Set(key string, val []byte, exp time.Duration) error {
	s.sets++
	return nil
}
func (s *countingStore) Delete(key string) error { return nil }
func (s *countingStore) Reset() error            { return nil }
func (s *countingStore) Close() error            { return nil }

type failStore struct{}

func (failStore) Get(key string) ([]byte, error) { return nil, errors.New("store down") }
func (failStore) Set(key string, val []byte, exp time.Duration) error {
	return errors.New("store down")
}
func (failStore) Delete(key string) error { return nil }
func (failStore) Reset() error            { return nil }
func (failStore) Close() error            { return nil }

func TestCheck_RejectsAfterLimitUntilWindowRollsOver(t *testing.T) {
	lim := New(2, time.Minute, keySet{}, memoryStorage.New())
	cur := time.Now()
	lim.now = func() time.Time { return cur }

	for i := 0; i < 2; i++ {
		if d := lim.Check("1.2.3.4", ""); !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if d := lim.Check("1.2.3.4", ""); d.Allowed {
		t.Fatalf("request over the limit should be rejected")
	}
	if d := lim.Check("1.2.3.4", ""); d.Allowed {
		t.Fatalf("rejection should persist within the window")
	}

	// A different identity has its own window.
	if d := lim.Check("5.6.7.8", ""); !d.Allowed {
		t.Fatalf("separate identity should not share the window")
	}

	cur = cur.Add(time.Minute + time.Second)
	if d := lim.Check("1.2.3.4", ""); !d.Allowed {
		t.Fatalf("expected a fresh window after rollover")
	}
}

func TestCheck_PrivilegedKeyBypassesWithoutConsumingQuota(t *testing.T) {
	lim := New(1, time.Minute, keySet{"secret": true}, memoryStorage.New())

	for i := 0; i < 5; i++ {
		if d := lim.Check("1.2.3.4", "secret"); !d.Allowed {
			t.Fatalf("privileged request %d should be allowed", i+1)
		}
	}

	// The bypassed requests must not have consumed any quota.
	if d := lim.Check("1.2.3.4", ""); !d.Allowed {
		t.Fatalf("first unprivileged request should still fit the window")
	}
	if d := lim.Check("1.2.3.4", ""); d.Allowed {
		t.Fatalf("second unprivileged request should be rejected")
	}
	if d := lim.Check("1.2.3.4", "secret"); !d.Allowed {
		t.Fatalf("privileged key must bypass even with the window exhausted")
	}
}

func TestCheck_UnknownKeyDoesNotBypass(t *testing.T) {
	lim := New(1, time.Minute, keySet{"secret": true}, memoryStorage.New())

	if d := lim.Check("1.2.3.4", "wrong"); !d.Allowed {
		t.Fatalf("first request should be allowed")
	}
	if d := lim.Check("1.2.3.4", "wrong"); d.Allowed {
		t.Fatalf("an unknown key must not bypass the limiter")
	}
}

func TestCheck_DisabledLimiterNeverTouchesStore(t *testing.T) {
	store := &countingStore{}
	lim := New(0, time.Minute, keySet{}, store)

	for i := 0; i < 10; i++ {
		if d := lim.Check("1.2.3.4", ""); !d.Allowed {
			t.Fatalf("disabled limiter must allow everything")
		}
	}
	if store.gets != 0 || store.sets != 0 {
		t.Fatalf("disabled limiter touched the store: %d gets, %d sets", store.gets, store.sets)
	}
}

func TestCheck_StoreFailureFailsOpen(t *testing.T) {
	lim := New(1, time.Minute, keySet{}, failStore{})

	for i := 0; i < 5; i++ {
		if d := lim.Check("1.2.3.4", ""); !d.Allowed {
			t.Fatalf("store outage should fail open, request %d rejected", i+1)
		}
	}
}

func TestCheck_RetryAfterCoversRestOfWindow(t *testing.T) {
	lim := New(1, time.Minute, keySet{}, memoryStorage.New())
	cur := time.Now()
	lim.now = func() time.Time { return cur }

	lim.Check("1.2.3.4", "")
	cur = cur.Add(20 * time.Second)
	d := lim.Check("1.2.3.4", "")
	if d.Allowed {
		t.Fatalf("expected rejection")
	}
	if d.RetryAfter != 40*time.Second {
		t.Fatalf("expected RetryAfter of 40s, got %s", d.RetryAfter)
	}
}

func TestCheck_RejectionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(rejectionsTotal)

	lim := New(1, time.Minute, keySet{}, memoryStorage.New())
	lim.Check("1.2.3.4", "")
	lim.Check("1.2.3.4", "")
	lim.Check("1.2.3.4", "")

	after := testutil.ToFloat64(rejectionsTotal)
	if after-before != 2 {
		t.Fatalf("expected 2 recorded rejections, got %v", after-before)
	}
}
