package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Store.Driver != "sqlite3" {
		t.Errorf("expected default driver 'sqlite3', got %s", cfg.Store.Driver)
	}

	if cfg.Store.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.Store.Timeout)
	}

	if cfg.Redis.Enabled {
		t.Error("expected redis to be disabled by default")
	}

	if cfg.Indexing.MaxNonIndexingSize != 10 || cfg.Indexing.MinIndexingSize != 6 {
		t.Errorf("expected indexing thresholds 10/6, got %d/%d",
			cfg.Indexing.MaxNonIndexingSize, cfg.Indexing.MinIndexingSize)
	}

	if cfg.Primitives.Mode != "repository" {
		t.Errorf("expected default primitives mode 'repository', got %s", cfg.Primitives.Mode)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected default log level 'warn', got %s", cfg.Log.Level)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	configContent := `
store:
  driver: postgres
  dsn: postgres://localhost/metagraph?sslmode=disable
  timeout: 5s
redis:
  enabled: true
  addr: cache:6379
  ttl: 10m
  elements: true
indexing:
  max_non_indexing_size: 20
  min_indexing_size: 12
primitives:
  mode: direct
preload:
  workers: 8
log:
  level: debug
  development: true
`
	os.WriteFile("metagraph.yml", []byte(configContent), 0644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Store.Driver != "postgres" {
		t.Errorf("expected driver 'postgres', got %s", cfg.Store.Driver)
	}

	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.Store.Timeout)
	}

	if !cfg.Redis.Enabled || cfg.Redis.Addr != "cache:6379" || cfg.Redis.TTL != 10*time.Minute || !cfg.Redis.Elements {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}

	if cfg.Redis.Prefix != "metagraph:" {
		t.Errorf("expected default prefix to survive, got %s", cfg.Redis.Prefix)
	}

	if cfg.Indexing.MaxNonIndexingSize != 20 || cfg.Indexing.MinIndexingSize != 12 {
		t.Errorf("expected indexing thresholds 20/12, got %d/%d",
			cfg.Indexing.MaxNonIndexingSize, cfg.Indexing.MinIndexingSize)
	}

	if cfg.Primitives.Mode != "direct" {
		t.Errorf("expected primitives mode 'direct', got %s", cfg.Primitives.Mode)
	}

	if cfg.Preload.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Preload.Workers)
	}

	if !cfg.Log.Development || cfg.Log.Level != "debug" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	os.WriteFile(path, []byte("store:\n  dsn: custom.db\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Store.DSN != "custom.db" {
		t.Errorf("expected dsn 'custom.db', got %s", cfg.Store.DSN)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("METAGRAPH_STORE_DSN", "env.db")
	t.Setenv("METAGRAPH_PRELOAD_WORKERS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Store.DSN != "env.db" {
		t.Errorf("expected dsn from environment, got %s", cfg.Store.DSN)
	}
	if cfg.Preload.Workers != 3 {
		t.Errorf("expected 3 workers from environment, got %d", cfg.Preload.Workers)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"driver", "store:\n  driver: oracle\n", "store.driver"},
		{"thresholds", "indexing:\n  max_non_indexing_size: 4\n  min_indexing_size: 5\n", "indexing.min_indexing_size"},
		{"primitives", "primitives:\n  mode: boxed\n", "primitives.mode"},
		{"workers", "preload:\n  workers: -1\n", "preload.workers"},
		{"level", "log:\n  level: loud\n", "log.level"},
		{"redis", "redis:\n  enabled: true\n  addr: \"\"\n", "redis.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			os.WriteFile("metagraph.yaml", []byte(tt.content), 0644)

			_, err := Load("")
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, "metagraph.yml"), []byte(""), 0644)

	subDir := filepath.Join(tmpDir, "src", "deep", "nested")
	os.MkdirAll(subDir, 0755)
	chdir(t, subDir)

	path, err := FindConfigFile()
	if err != nil {
		t.Fatalf("expected to find config file, got error: %v", err)
	}

	// On macOS, /tmp is symlinked to /private/tmp, so resolve both paths
	resolved, _ := filepath.EvalSymlinks(filepath.Dir(path))
	resolvedTmpDir, _ := filepath.EvalSymlinks(tmpDir)

	if resolved != resolvedTmpDir {
		t.Errorf("expected config file in %s, got %s", resolvedTmpDir, path)
	}
}

func TestFindConfigFileMissing(t *testing.T) {
	chdir(t, t.TempDir())

	if _, err := FindConfigFile(); err == nil {
		t.Error("expected error when no config file exists, got nil")
	}
}
