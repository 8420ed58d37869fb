package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("askdb", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Schema.CacheTTL != 5*time.Minute {
		t.Fatalf("Schema.CacheTTL = %v", cfg.Schema.CacheTTL)
	}
	if cfg.Schema.SampleRows != 3 {
		t.Fatalf("Schema.SampleRows = %d", cfg.Schema.SampleRows)
	}
	if len(cfg.Schema.AllowedTables) != 3 {
		t.Fatalf("Schema.AllowedTables = %v", cfg.Schema.AllowedTables)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.AI.Model != "gpt-4o-mini" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.Pipeline.LLMTimeout != 30*time.Second {
		t.Fatalf("Pipeline.LLMTimeout = %v", cfg.Pipeline.LLMTimeout)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"ASKDB_PROFILE": "prod"})
	cfg, err := Load("askdb", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to true in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"ASKDB_PROFILE":               "test",
		"ASKDB_DB_DSN":                "postgres://example/db",
		"ASKDB_SCHEMA_CACHE_TTL":      "90s",
		"ASKDB_SCHEMA_ALLOWED_TABLES": "public.orders, inventory.stock ,public.users",
		"ASKDB_AI_MODEL":              "gpt-4.1",
		"ASKDB_AI_TEMPERATURE":        "0.2",
		"ASKDB_PIPELINE_LLM_TIMEOUT":  "45s",
		"ASKDB_LOG_LEVEL":             "error",
	})
	cfg, err := Load("askdb", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "postgres://example/db" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Schema.CacheTTL != 90*time.Second {
		t.Fatalf("Schema.CacheTTL = %v", cfg.Schema.CacheTTL)
	}
	want := []string{"public.orders", "inventory.stock", "public.users"}
	if len(cfg.Schema.AllowedTables) != len(want) {
		t.Fatalf("Schema.AllowedTables = %v", cfg.Schema.AllowedTables)
	}
	for i, name := range want {
		if cfg.Schema.AllowedTables[i] != name {
			t.Fatalf("AllowedTables[%d] = %q, want %q", i, cfg.Schema.AllowedTables[i], name)
		}
	}
	if cfg.AI.Temperature != 0.2 {
		t.Fatalf("AI.Temperature = %v", cfg.AI.Temperature)
	}
	if cfg.Pipeline.LLMTimeout != 45*time.Second {
		t.Fatalf("Pipeline.LLMTimeout = %v", cfg.Pipeline.LLMTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{"ASKDB_PROFILE": "staging"})
	if _, err := Load("askdb", lookup); err == nil {
		t.Fatal("expected error for invalid profile")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	lookup := mapLookup(map[string]string{"ASKDB_SCHEMA_CACHE_TTL": "five minutes"})
	if _, err := Load("askdb", lookup); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadRejectsEmptyAllowlist(t *testing.T) {
	lookup := mapLookup(map[string]string{"ASKDB_SCHEMA_ALLOWED_TABLES": " , "})
	if _, err := Load("askdb", lookup); err == nil {
		t.Fatal("expected error for empty allowlist")
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
