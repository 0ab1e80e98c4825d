package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFileOutputs(t *testing.T) {
	dir := t.TempDir()
	appPath := filepath.Join(dir, "logs", "app.log")
	auditPath := filepath.Join(dir, "logs", "audit.log")

	err := Init(Config{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{appPath},
		Audit:       AuditConfig{Enabled: true, Path: auditPath},
	})
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Named("store").Debug("opened", "driver", "sqlite3")
	Audit().Info("task_created", "task_id", 1)
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	appContent, err := os.ReadFile(appPath)
	if err != nil {
		t.Fatalf("read app log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(appContent))), &entry); err != nil {
		t.Fatalf("app log is not json: %v (%s)", err, appContent)
	}
	if entry["component"] != "store" || entry["msg"] != "opened" {
		t.Fatalf("unexpected app entry: %+v", entry)
	}

	auditContent, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if !strings.Contains(string(auditContent), "task_created") {
		t.Fatalf("audit log missing entry: %s", auditContent)
	}
	if strings.Contains(string(appContent), "task_created") {
		t.Fatalf("audit entry leaked into app log")
	}
}

func TestInitRejectsAuditWithoutPath(t *testing.T) {
	err := Init(Config{Audit: AuditConfig{Enabled: true}})
	if err == nil {
		t.Fatalf("expected error when audit path is empty")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for input, want := range cases {
		if got := parseLevel(input).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}
