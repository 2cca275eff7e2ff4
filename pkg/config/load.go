package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCollection  = "sql_references"
	DefaultRefLimit    = 3
	DefaultSampleLimit = 3
	DefaultLLMTimeout  = 60 * time.Second
	DefaultServerAddr  = ":8080"
)

func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("references.collection", DefaultCollection)
	v.SetDefault("references.limit", DefaultRefLimit)
	v.SetDefault("context.sample_limit", DefaultSampleLimit)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
