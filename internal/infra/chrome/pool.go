// Package chrome manages a pool of headless Chrome tabs shared by chart
// renders. One browser process hosts up to ChromePoolSize concurrent tabs;
// a wedged browser is replaced through Restart without dropping the pool.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"chartsrv/internal/config"
	"chartsrv/internal/infra/logging"
)

// Tab is one acquired render slot. Ctx is a chromedp tab context rooted in
// the pooled browser.
type Tab struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// Stats is a point-in-time snapshot for the ops endpoint.
type Stats struct {
	Enabled      bool
	Capacity     int
	Idle         int
	InUse        int
	PoolSizeConf int
	ProfileDir   string
	TimeoutSecs  int
	Restarts     int
	LastRestart  time.Time
}

type Pool struct {
	mu            sync.Mutex
	cfg           config.Config
	sem           chan struct{}
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	profileDir    string
	closed        bool
	restarts      int
	lastRestart   time.Time
}

// NewPool builds the pool and prepares the browser context. Chrome itself
// launches lazily on the first render. A pool size of zero or less is an
// error; callers treat that as "pool disabled" and fall back to a
// per-request browser.
func NewPool(cfg config.Config) (*Pool, error) {
	size := cfg.Chart.ChromePoolSize
	if size <= 0 {
		return nil, fmt.Errorf("chrome pool disabled: size %d", size)
	}

	p := &Pool{cfg: cfg, sem: make(chan struct{}, size)}
	for i := 0; i < size; i++ {
		p.sem <- struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.startBrowserLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pool) startBrowserLocked() error {
	dir, err := createProfileDir(p.cfg)
	if err != nil {
		return err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(p.cfg, dir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	p.profileDir = dir
	p.allocCancel = allocCancel
	p.browserCtx = browserCtx
	p.browserCancel = browserCancel
	return nil
}

// Acquire blocks until a slot frees up or ctx expires, then opens a fresh
// tab in the pooled browser.
func (p *Pool) Acquire(ctx context.Context) (*Tab, error) {
	p.mu.Lock()
	closed := p.closed
	browserCtx := p.browserCtx
	p.mu.Unlock()

	if closed {
		return nil, errors.New("chrome pool is closed")
	}

	select {
	case <-p.sem:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if browserCtx == nil {
		browserCtx = context.Background()
	}
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	return &Tab{Ctx: tabCtx, cancel: cancel}, nil
}

// Release closes the tab and returns its slot.
func (p *Pool) Release(tab *Tab, renderErr error) {
	if tab != nil && tab.cancel != nil {
		tab.cancel()
	}
	if renderErr != nil && IsSessionInterrupted(renderErr) {
		logging.Warn("Tab released after interrupted session", "error", renderErr.Error())
	}
	select {
	case p.sem <- struct{}{}:
	default:
	}
}

// Restart tears down the current browser and profile dir and prepares a
// fresh one. Slots held by in-flight renders are returned by their
// Release as usual.
func (p *Pool) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("chrome pool is closed")
	}

	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	if p.profileDir != "" {
		_ = os.RemoveAll(p.profileDir)
	}

	if err := p.startBrowserLocked(); err != nil {
		return err
	}
	p.restarts++
	p.lastRestart = time.Now()
	return nil
}

// Close shuts the pool down for good. Safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	if p.profileDir != "" {
		_ = os.RemoveAll(p.profileDir)
		p.profileDir = ""
	}
}

// Stats reports pool occupancy. The render timeout is echoed into the
// snapshot so the ops endpoint shows one coherent picture.
func (p *Pool) Stats(timeoutSecs int) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{
		Enabled:      !p.closed,
		PoolSizeConf: p.cfg.Chart.ChromePoolSize,
		ProfileDir:   p.profileDir,
		TimeoutSecs:  timeoutSecs,
		Restarts:     p.restarts,
		LastRestart:  p.lastRestart,
	}
	if p.sem != nil {
		st.Capacity = cap(p.sem)
		st.Idle = len(p.sem)
		st.InUse = st.Capacity - st.Idle
	}
	return st
}

func createProfileDir(cfg config.Config) (string, error) {
	base := cfg.Chart.UserDataDir
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", fmt.Errorf("cannot create chrome profile base %s: %w", base, err)
		}
	}
	dir, err := os.MkdirTemp(base, "chartsrv-chrome-*")
	if err != nil {
		return "", fmt.Errorf("cannot create chrome profile dir: %w", err)
	}
	return dir, nil
}

// allocatorOptions forces software rendering to avoid Vulkan/ANGLE issues
// in minimal container environments.
func allocatorOptions(cfg config.Config, profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.Chart.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Chart.ChromePath))
	}
	if cfg.Chart.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// IsSessionInterrupted reports whether err looks like a lost Chrome
// session rather than a render problem. Interrupted sessions are worth a
// pool restart and one retry.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "target closed") || strings.Contains(msg, "session closed")
}
