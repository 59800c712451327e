package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: "10s"
logging:
  level: "debug"
  console: true
storage:
  path: "/tmp/bot.db"
reminders:
  max_per_user: 10
  developer: "miradev"
  spam_window: "5m"
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Reminders.MaxPerUser != 10 || cfg.Reminders.Developer != "miradev" {
		t.Errorf("reminders = %+v", cfg.Reminders)
	}
	if got := m.Get(); got != cfg {
		t.Error("Get did not return the committed config")
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json",
		`{"telegram":{"token":"t"},"logging":{"level":"info","console":true,"file":{"enabled":false}},"storage":{"path":"x.db"},"reminders":{}}`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Storage.Path != "x.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "t"
  typo_field: true
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"telegram":{"token":"t"}}{"extra":1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("reminders.spam_window", "5m")
	if err != nil || d != 5*time.Minute {
		t.Errorf("ParseDurationField = %v, %v", d, err)
	}
	d, err = ParseDurationField("reminders.spam_window", "30")
	if err != nil || d != 30*time.Second {
		t.Errorf("ParseDurationField bare number = %v, %v", d, err)
	}
	if _, err := ParseDurationField("reminders.spam_window", "soon"); err == nil {
		t.Error("expected error for invalid duration")
	}
	if _, err := ParseDurationField("reminders.spam_window", "-5m"); err == nil {
		t.Error("expected error for negative duration")
	}
	d, err = ParseDurationOrDefault("x", "", time.Minute)
	if err != nil || d != time.Minute {
		t.Errorf("ParseDurationOrDefault empty = %v, %v", d, err)
	}
}
