package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/guidesql/internal/emit"
	"github.com/dgallion1/guidesql/internal/hierarchy"
	"github.com/dgallion1/guidesql/internal/parser"
)

// Store backends.
const (
	StoreNone      = "none"
	StorePostgREST = "postgrest"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
)

type Config struct {
	// Logging
	LogFormat string `yaml:"log_format"` // text or json
	LogLevel  string `yaml:"log_level"`

	// Target table and document
	Table      string `yaml:"table"`
	DocumentID int64  `yaml:"document_id"`
	Charset    string `yaml:"charset"`

	// Reconciliation
	IDScheme     string `yaml:"id_scheme"`
	IDBase       int64  `yaml:"id_base"`
	Policy       string `yaml:"policy"`
	CurationFile string `yaml:"curation_file"`

	// Output
	ParentMode      string `yaml:"parent_mode"`
	ReplaceExisting bool   `yaml:"replace_existing"`

	// Remote store
	Store       string        `yaml:"store"`
	SupabaseURL string        `yaml:"supabase_url"`
	SupabaseKey string        `yaml:"-"` // environment only
	PostgresDSN string        `yaml:"-"` // environment only
	SQLitePath  string        `yaml:"sqlite_path"`
	Timeout     time.Duration `yaml:"timeout"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

func defaults() Config {
	return Config{
		LogFormat:            "text",
		LogLevel:             "info",
		Table:                "guide_sections",
		DocumentID:           1,
		Charset:              "utf-8",
		IDScheme:             string(hierarchy.SchemeNone),
		IDBase:               1,
		Policy:               string(hierarchy.PolicySkip),
		ParentMode:           string(emit.ParentSubquery),
		Store:                StoreNone,
		SQLitePath:           "guide.db",
		Timeout:              10 * time.Minute,
		PDFFallbackPdftotext: true,
	}
}

// Load reads configuration from GUIDESQL_* environment variables over the
// defaults.
func Load() Config {
	cfg := defaults()
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

// LoadFile reads a YAML file over the defaults, then applies the
// environment. Credentials are never read from the file.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogFormat = envOr("GUIDESQL_LOG_FORMAT", c.LogFormat)
	c.LogLevel = envOr("GUIDESQL_LOG_LEVEL", c.LogLevel)

	c.Table = envOr("GUIDESQL_TABLE", c.Table)
	c.DocumentID = envInt64("GUIDESQL_DOCUMENT_ID", c.DocumentID)
	c.Charset = envOr("GUIDESQL_CHARSET", c.Charset)

	c.IDScheme = envOr("GUIDESQL_ID_SCHEME", c.IDScheme)
	c.IDBase = envInt64("GUIDESQL_ID_BASE", c.IDBase)
	c.Policy = envOr("GUIDESQL_POLICY", c.Policy)
	c.CurationFile = envOr("GUIDESQL_CURATION_FILE", c.CurationFile)

	c.ParentMode = envOr("GUIDESQL_PARENT_MODE", c.ParentMode)
	c.ReplaceExisting = envBool("GUIDESQL_REPLACE_EXISTING", c.ReplaceExisting)

	c.Store = envOr("GUIDESQL_STORE", c.Store)
	c.SupabaseURL = envOr("GUIDESQL_SUPABASE_URL", envOr("SUPABASE_URL", c.SupabaseURL))
	c.SupabaseKey = envOr("GUIDESQL_SUPABASE_KEY", envOr("SUPABASE_SERVICE_ROLE_KEY", c.SupabaseKey))
	c.PostgresDSN = envOr("GUIDESQL_POSTGRES_DSN", envOr("DATABASE_URL", c.PostgresDSN))
	c.SQLitePath = envOr("GUIDESQL_SQLITE_PATH", c.SQLitePath)
	c.Timeout = envDuration("GUIDESQL_TIMEOUT", c.Timeout)

	c.PDFFallbackPdftotext = envBool("GUIDESQL_PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)
}

func (c *Config) normalize() {
	if c.Table == "" {
		c.Table = "guide_sections"
	}
	if c.IDBase <= 0 {
		c.IDBase = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.Store == "" {
		c.Store = StoreNone
	}
}

func (c Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: want text or json", c.LogFormat)
	}
	if c.DocumentID <= 0 {
		return fmt.Errorf("document id must be positive, got %d", c.DocumentID)
	}
	if _, err := parser.Decoder(c.Charset); err != nil {
		return err
	}
	if _, err := hierarchy.ParseScheme(c.IDScheme); err != nil {
		return err
	}
	if _, err := hierarchy.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := emit.ParseParentMode(c.ParentMode); err != nil {
		return err
	}

	switch c.Store {
	case StoreNone:
	case StorePostgREST:
		if c.SupabaseURL == "" {
			return fmt.Errorf("GUIDESQL_SUPABASE_URL is required for the postgrest store")
		}
		if c.SupabaseKey == "" {
			return fmt.Errorf("GUIDESQL_SUPABASE_KEY is required for the postgrest store")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("GUIDESQL_POSTGRES_DSN is required for the postgres store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q (want none, postgrest, postgres or sqlite)", c.Store)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
