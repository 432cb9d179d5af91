package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Table != "guide_sections" || cfg.DocumentID != 1 || cfg.Store != StoreNone {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.IDScheme != "none" || cfg.Policy != "skip" || cfg.ParentMode != "subquery" {
		t.Errorf("unexpected reconcile defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("GUIDESQL_DOCUMENT_ID", "3")
	t.Setenv("GUIDESQL_POLICY", "flatten")
	t.Setenv("GUIDESQL_TIMEOUT", "30s")
	t.Setenv("GUIDESQL_STORE", "postgrest")
	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("GUIDESQL_ID_BASE", "not-a-number")

	cfg := Load()
	if cfg.DocumentID != 3 || cfg.Policy != "flatten" || cfg.Timeout != 30*time.Second {
		t.Errorf("expected env overrides, got %+v", cfg)
	}
	if cfg.SupabaseURL != "https://x.supabase.co" || cfg.SupabaseKey != "service-key" {
		t.Errorf("expected supabase fallbacks, got %q %q", cfg.SupabaseURL, cfg.SupabaseKey)
	}
	if cfg.IDBase != 1 {
		t.Errorf("expected invalid id base to keep default, got %d", cfg.IDBase)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadFile_OverlayThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guidesql.yaml")
	content := "document_id: 5\npolicy: abort\nstore: sqlite\nsqlite_path: /tmp/g.db\nid_scheme: order-num\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GUIDESQL_POLICY", "skip")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DocumentID != 5 || cfg.Store != StoreSQLite || cfg.IDScheme != "order-num" {
		t.Errorf("expected file values, got %+v", cfg)
	}
	if cfg.Policy != "skip" {
		t.Errorf("expected env to win over file, got %q", cfg.Policy)
	}
	if cfg.Table != "guide_sections" {
		t.Errorf("expected default table kept, got %q", cfg.Table)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"document", func(c *Config) { c.DocumentID = 0 }},
		{"charset", func(c *Config) { c.Charset = "latin-1" }},
		{"scheme", func(c *Config) { c.IDScheme = "serial" }},
		{"policy", func(c *Config) { c.Policy = "ignore" }},
		{"parent mode", func(c *Config) { c.ParentMode = "join" }},
		{"store", func(c *Config) { c.Store = "mysql" }},
		{"postgrest key", func(c *Config) { c.Store = StorePostgREST; c.SupabaseURL = "http://x" }},
		{"postgres dsn", func(c *Config) { c.Store = StorePostgres }},
		{"sqlite path", func(c *Config) { c.Store = StoreSQLite; c.SQLitePath = "" }},
	}
	for _, tc := range cases {
		cfg := defaults()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}
