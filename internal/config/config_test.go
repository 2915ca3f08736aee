package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func required() map[string]string {
	return map[string]string{
		"MORNING_ID":         "mid",
		"MORNING_SECRET":     "msecret",
		"NOTION_API_KEY":     "nkey",
		"NOTION_DATABASE_ID": "ndb",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envMap(required()))
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}

	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.Port != "8080" || cfg.LogLevel != "info" || cfg.BigQueryDataset != "finance" {
		t.Errorf("defaults = port %q level %q dataset %q", cfg.Port, cfg.LogLevel, cfg.BigQueryDataset)
	}
	if cfg.LogJSON {
		t.Error("LogJSON should default to false")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"MORNING_ID", "MORNING_SECRET", "NOTION_API_KEY", "NOTION_DATABASE_ID"} {
		t.Run(key, func(t *testing.T) {
			env := required()
			delete(env, key)

			_, err := load(envMap(env))
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Errorf("error = %v, want it to name %s", err, key)
			}
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	env := required()
	env["HTTP_TIMEOUT"] = "5s"
	env["LOG_JSON"] = "true"
	env["PORT"] = "9000"
	env["NOTION_BASE_URL"] = "http://localhost:3001/notion"

	cfg, err := load(envMap(env))
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.HTTPTimeout != 5*time.Second || !cfg.LogJSON || cfg.Port != "9000" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.NotionBaseURL != "http://localhost:3001/notion" {
		t.Errorf("NotionBaseURL = %q", cfg.NotionBaseURL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	for key, val := range map[string]string{"HTTP_TIMEOUT": "soon", "LOG_JSON": "maybe"} {
		env := required()
		env[key] = val
		if _, err := load(envMap(env)); err == nil {
			t.Errorf("%s=%q: expected error", key, val)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file error = %v, want nil", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINANCE_DOCS_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINANCE_DOCS_TEST_KEY", "")
	os.Unsetenv("FINANCE_DOCS_TEST_KEY")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error: %v", err)
	}
	if got := os.Getenv("FINANCE_DOCS_TEST_KEY"); got != "from-file" {
		t.Errorf("FINANCE_DOCS_TEST_KEY = %q, want from-file", got)
	}
}
