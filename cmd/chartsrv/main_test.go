package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"chartsrv/internal/config"
)

func TestStartServer_GracefulShutdownOnSignal(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var cfg config.Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":0"

	idleConnsClosed := make(chan struct{})
	go startServer(app, cfg, idleConnsClosed)

	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("failed to send SIGTERM: %v", err)
	}

	select {
	case <-idleConnsClosed:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for graceful shutdown")
	}
}

func TestStartServer_DevModeExitsWithoutSignal(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var cfg config.Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":0"
	cfg.Server.Dev = true

	idleConnsClosed := make(chan struct{})
	go startServer(app, cfg, idleConnsClosed)

	// No signal handler is installed in dev mode, so stopping the
	// listener is the only way out.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := app.Shutdown(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("server never started listening")
		}
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-idleConnsClosed:
	case <-time.After(3 * time.Second):
		t.Fatal("dev mode startServer did not return after listener close")
	}
}

func TestMain_UsesConfigAndShutsDown(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	err := os.WriteFile(cfgPath, []byte(`
server:
  host: "127.0.0.1"
  port: ":0"
  prefork: false
  dev: false
logger:
  file: "`+filepath.Join(dir, `chartsrv.log`)+`"
  level: "info"
  max_size_mb: 1
  max_backups: 1
  max_age_days: 1
  compress: false
rate_limit:
  per_minute: 0
  keys: []
  postgres_dsn: ""
  key_reload_every: 1m
cache:
  chart_cache_enabled: false
  chart_cache_ttl: 1m
  redis_host: ""
  redis_rate_db: 0
  redis_chart_db: 1
chart:
  script_url: "https://cdn.example.com/chart.min.js"
  chrome_path: ""
  chrome_no_sandbox: true
  chrome_pool_size: 0
  user_data_dir: ""
  timeout_secs: 1
`), 0o644)
	if err != nil {
		t.Fatalf("write cfg: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("CHROME_BIN", "/bin/true")
	t.Setenv("PORT", "")
	t.Setenv("RATE_LIMIT_PER_MIN", "")

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	time.Sleep(200 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("signal main: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for main to exit")
	}
}
