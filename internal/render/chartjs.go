package render

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"chartsrv/internal/config"
	"chartsrv/internal/domain"
	"chartsrv/internal/infra/chrome"
	"chartsrv/internal/infra/logging"
)

// ChartJS renders chart definitions by loading Chart.js into a headless
// Chrome tab and screenshotting the canvas. Tabs come from the shared
// pool; if the pool cannot start, every render launches its own browser.
type ChartJS struct {
	cfg config.Config

	poolMu  sync.Mutex
	pool    *chrome.Pool
	poolErr error
}

func NewChartJS(cfg config.Config) *ChartJS {
	return &ChartJS{cfg: cfg}
}

func (r *ChartJS) getPool() *chrome.Pool {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()

	if r.pool != nil {
		return r.pool
	}
	pool, err := chrome.NewPool(r.cfg)
	if err != nil {
		if r.poolErr == nil || err.Error() != r.poolErr.Error() {
			logging.Warn("Chrome pool unavailable, rendering with per-request browsers", "error", err.Error())
		}
		r.poolErr = err
		return nil
	}
	r.pool = pool
	r.poolErr = nil
	return pool
}

// Pool exposes the shared pool for the stats endpoint. Nil when the pool
// is disabled or failed to start.
func (r *ChartJS) Pool() *chrome.Pool {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	return r.pool
}

// Close releases the pooled browser, if one was started.
func (r *ChartJS) Close() {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

func (r *ChartJS) timeout() time.Duration {
	secs := r.cfg.Chart.TimeoutSecs
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

// RenderPNG runs the chart page in a pooled tab. A render that dies with
// an interrupted session restarts the browser and retries once; any
// second failure is the caller's problem.
func (r *ChartJS) RenderPNG(ctx context.Context, spec domain.ChartSpec) ([]byte, error) {
	html := buildChartPage(spec, r.cfg.Chart.ScriptURL)

	pool := r.getPool()
	if pool == nil {
		return r.renderWithOwnBrowser(ctx, html, spec)
	}

	runOnce := func() ([]byte, error) {
		acquireCtx, acquireCancel := context.WithTimeout(ctx, 5*time.Second)
		defer acquireCancel()

		tab, err := pool.Acquire(acquireCtx)
		if err != nil {
			return nil, fmt.Errorf("cannot acquire chrome tab: %w", err)
		}

		tabCtx, cancel := context.WithTimeout(tab.Ctx, r.timeout())
		buf, renderErr := renderChartInTab(tabCtx, html, spec)
		cancel()
		pool.Release(tab, renderErr)
		return buf, renderErr
	}

	buf, err := runOnce()
	if err != nil && chrome.IsSessionInterrupted(err) {
		logging.Warn("Chrome session interrupted, restarting pool and retrying", "error", err.Error())
		if restartErr := pool.Restart(); restartErr != nil {
			logging.Error("Chrome pool restart failed", "error", restartErr.Error())
			return nil, err
		}
		return runOnce()
	}
	return buf, err
}

// renderWithOwnBrowser is the fallback path without a pool: one throwaway
// browser and profile dir per request.
func (r *ChartJS) renderWithOwnBrowser(ctx context.Context, html string, spec domain.ChartSpec) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "chartsrv-chrome-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create chrome profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.cfg.Chart.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.Chart.ChromePath))
	}
	if r.cfg.Chart.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	renderCtx, cancel := context.WithTimeout(browserCtx, r.timeout())
	defer cancel()
	return renderChartInTab(renderCtx, html, spec)
}

// renderChartInTab injects the chart page into a blank tab, waits for the
// canvas to settle and screenshots it. The short sleep after WaitReady
// gives Chart.js time to finish its first paint.
func renderChartInTab(ctx context.Context, html string, spec domain.ChartSpec) ([]byte, error) {
	var buf []byte
	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(spec.Width), int64(spec.Height)),
		chromedp.Navigate("about:blank"),
	}
	if spec.Background == "" || spec.Background == domain.DefaultChartBackground {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetDefaultBackgroundColorOverride().
				WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}).
				Do(ctx)
		}))
	}
	actions = append(actions,
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("#chart", chromedp.ByQuery),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.Screenshot("#chart", &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err := chromedp.Run(ctx, actions...); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf, nil
}

// buildChartPage wraps the raw definition in a minimal page. The
// definition is a JavaScript object literal and goes in verbatim; it runs
// inside a throwaway tab that never sees another request's data.
func buildChartPage(spec domain.ChartSpec, scriptURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>html, body { margin: 0; padding: 0; background: %s; }</style>
</head>
<body>
<canvas id="chart" width="%d" height="%d"></canvas>
<script src="%s"></script>
<script>
if (window.Chart && Chart.defaults && Chart.defaults.global) {
	Chart.defaults.global.animation = false;
	Chart.defaults.global.responsive = false;
}
new Chart(document.getElementById('chart').getContext('2d'), %s);
</script>
</body>
</html>`, cssBackground(spec.Background), spec.Width, spec.Height, scriptURL, spec.Definition)
}

func cssBackground(bkg string) string {
	if bkg == "" {
		return domain.DefaultChartBackground
	}
	return bkg
}
