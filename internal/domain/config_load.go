package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig builds the effective configuration: tier defaults, then an
// optional YAML file, then environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if os.Getenv("DECOY_TIER") == string(TierPro) {
		cfg = ProConfig()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides secrets and endpoints from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := os.Getenv("DECOY_GENERATOR"); v != "" {
		cfg.Generator.Provider = v
	}
	if v := os.Getenv("DECOY_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("DECOY_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("DECOY_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("DECOY_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("DECOY_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if os.Getenv("DECOY_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}
}
