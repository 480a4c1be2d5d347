package config

import (
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.API.BaseURL != "https://api.velora.test/api" {
		t.Fatalf("unexpected API base URL: %q", cfg.API.BaseURL)
	}

	if got := cfg.API.Timeout; got != 15*time.Second {
		t.Fatalf("expected default API timeout 15s, got %v", got)
	}

	if cfg.Snapshot.Backend != SnapshotBackendSQLite {
		t.Fatalf("expected default sqlite snapshot backend, got %q", cfg.Snapshot.Backend)
	}
}

func TestLoad_MissingBaseURL(t *testing.T) {
	t.Setenv(EnvAppEnv, "dev")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing API base URL to return an error")
	}
}

func TestLoad_RedisBackendRequiresAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSnapshotBackend, "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without address to return an error")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Snapshot.Backend != SnapshotBackendRedis {
		t.Fatalf("expected redis backend, got %q", cfg.Snapshot.Backend)
	}
}

func TestLoad_UnknownSnapshotBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSnapshotBackend, "cloud")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown snapshot backend to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAPIBaseURL, "https://api.velora.test/api")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "Production"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
