package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadJSONAppliesDefaults(t *testing.T) {
	path := writeFile(t, "taskmanager.json", `{
  "server": {"address": ":8081"},
  "storage": {"conn_max_lifetime_seconds": 90},
  "runtime": {"data_dir": "var"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8081" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Server.SiteAddress != ":9292" || cfg.Server.SiteVariant != "personal_site" {
		t.Fatalf("site defaults not applied: %+v", cfg.Server)
	}
	wantDir := filepath.Join(filepath.Dir(path), "var")
	if cfg.Runtime.DataDir != wantDir {
		t.Fatalf("data dir = %s, want %s", cfg.Runtime.DataDir, wantDir)
	}
	if cfg.Storage.Driver != "sqlite3" {
		t.Fatalf("unexpected driver: %s", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != filepath.Join(wantDir, "task_manager_development.db") {
		t.Fatalf("unexpected dsn: %s", cfg.Storage.DSN)
	}
	if cfg.Storage.ConnMaxLifetime() != 90*time.Second {
		t.Fatalf("unexpected lifetime: %s", cfg.Storage.ConnMaxLifetime())
	}
	if cfg.Events.Driver != "none" {
		t.Fatalf("unexpected events driver: %s", cfg.Events.Driver)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "taskmanager.yaml", `
server:
  site_variant: static_challenges
  metrics_address: "127.0.0.1:9394"
storage:
  driver: mysql
  dsn: "user:pass@tcp(127.0.0.1:3306)/tasks"
events:
  driver: redis
  redis:
    address: 127.0.0.1:6379
    key: tasks:events
logging:
  format: text
  audit:
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.SiteVariant != "static_challenges" {
		t.Fatalf("unexpected variant: %s", cfg.Server.SiteVariant)
	}
	if cfg.Server.MetricsAddress != "127.0.0.1:9394" {
		t.Fatalf("unexpected metrics address: %s", cfg.Server.MetricsAddress)
	}
	if cfg.Storage.Driver != "mysql" || cfg.Storage.DSN != "user:pass@tcp(127.0.0.1:3306)/tasks" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Events.Redis.Key != "tasks:events" {
		t.Fatalf("unexpected redis config: %+v", cfg.Events.Redis)
	}
	if cfg.Logging.Format != "text" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	if cfg.Logging.Audit.Path != filepath.Join(cfg.Runtime.DataDir, "audit.log") {
		t.Fatalf("audit path default not applied: %s", cfg.Logging.Audit.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "taskmanager.json", `{"storage": {"driver": "sqlite3", "dsn": "file.db"}}`)
	t.Setenv("TASKMANAGER_ADDR", ":7000")
	t.Setenv("TASKMANAGER_DB_DRIVER", "mysql")
	t.Setenv("TASKMANAGER_DB_DSN", "root@tcp(db:3306)/tasks")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":7000" {
		t.Fatalf("address override ignored: %s", cfg.Server.Address)
	}
	if cfg.Storage.Driver != "mysql" || cfg.Storage.DSN != "root@tcp(db:3306)/tasks" {
		t.Fatalf("storage override ignored: %+v", cfg.Storage)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}

	cfg, err := Load(DefaultPath)
	if err != nil {
		t.Fatalf("missing default config should fall back to defaults: %v", err)
	}
	if cfg.Server.Address != ":9393" {
		t.Fatalf("unexpected default address: %s", cfg.Server.Address)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeFile(t, "broken.json", `{"server":`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
