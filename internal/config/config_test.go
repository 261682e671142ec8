package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "redis"
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}

	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_UnknownMetric(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Metric = "manhattan"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestValidate_UnknownWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Search.SimilarWindow = "fortnight"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown default window")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg.Database.Driver)
	}
	if cfg.Search.KeywordWindow != "all" {
		t.Errorf("keyword window = %q, want all", cfg.Search.KeywordWindow)
	}
	if cfg.Search.SimilarWindow != "1week" {
		t.Errorf("similar window = %q, want 1week", cfg.Search.SimilarWindow)
	}
	if cfg.Search.OverProvision != 3 {
		t.Errorf("over provision = %d, want 3", cfg.Search.OverProvision)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("dimensions = %d, want 1536", cfg.Embedding.Dimensions)
	}
	if cfg.Storage.KeyPrefix != "paperdex:" {
		t.Errorf("key prefix = %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("PAPERDEX_TEST_VAR", "redis-host:6379")
	defer os.Unsetenv("PAPERDEX_TEST_VAR")

	in := []byte("addr: ${PAPERDEX_TEST_VAR}\npassword: ${PAPERDEX_TEST_MISSING:-fallback}\nempty: ${PAPERDEX_TEST_MISSING}")
	got := string(expandEnvVars(in))
	want := "addr: redis-host:6379\npassword: fallback\nempty: "

	if got != want {
		t.Errorf("expanded:\ngot:  %q\nwant: %q", got, want)
	}
}
