package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Indexer.NumShards != 4 || cfg.Indexer.BlockSize != 128 {
		t.Errorf("indexer = %+v, want 4 shards of 128-posting blocks", cfg.Indexer)
	}
	if !cfg.Search.Pruning || cfg.Search.DefaultOperator != "OR" {
		t.Errorf("search = %+v, want pruning with OR", cfg.Search)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searcher.yaml")
	yaml := `
server:
  port: 9000
search:
  maxResults: 50
  defaultLimit: 20
  defaultOperator: AND
  timeoutPerShard: 500ms
indexer:
  numShards: 2
  blockSize: 64
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SP_INDEXER_BLOCK_SIZE", "32")
	t.Setenv("SP_SEARCH_PRUNING", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Search.TimeoutPerShard != 500*time.Millisecond {
		t.Errorf("TimeoutPerShard = %v, want 500ms", cfg.Search.TimeoutPerShard)
	}
	if cfg.Indexer.NumShards != 2 || cfg.Indexer.BlockSize != 32 {
		t.Errorf("Indexer = %+v, want 2 shards with env block size 32", cfg.Indexer)
	}
	if cfg.Search.Pruning {
		t.Error("SP_SEARCH_PRUNING=false was not applied")
	}
	// Unset fields keep their defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want default", cfg.Redis.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"shards", func(c *Config) { c.Indexer.NumShards = 0 }, "numShards"},
		{"limit", func(c *Config) { c.Search.DefaultLimit = 500 }, "defaultLimit"},
		{"operator", func(c *Config) { c.Search.DefaultOperator = "XOR" }, "defaultOperator"},
		{"tie break", func(c *Config) { c.Search.TieBreak = 1.5 }, "tieBreak"},
		{"brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "brokers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() of a missing file succeeded")
	}
}
