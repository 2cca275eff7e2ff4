package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	References ReferencesConfig `mapstructure:"references"`
	Context    ContextConfig    `mapstructure:"context"`
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
}

type DatabaseConfig struct {
	URL    string `mapstructure:"url"`
	Schema string `mapstructure:"schema"`
}

type LLMConfig struct {
	URI         string        `mapstructure:"uri"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
}

type EmbeddingConfig struct {
	URI string `mapstructure:"uri"`
}

type ReferencesConfig struct {
	URI        string `mapstructure:"uri"`
	Collection string `mapstructure:"collection"`
	Limit      int    `mapstructure:"limit"`
}

// Enabled reports whether a reference backend, its collection and an
// embedding model are all configured.
func (r ReferencesConfig) Enabled(embedding EmbeddingConfig) bool {
	return r.URI != "" && r.Collection != "" && embedding.URI != ""
}

type ContextConfig struct {
	SampleLimit          int      `mapstructure:"sample_limit"`
	Tables               []string `mapstructure:"tables"`
	PostgresCommentQuery string   `mapstructure:"postgres_comment_query"`
	MySQLCommentQuery    string   `mapstructure:"mysql_comment_query"`
	PromptTemplate       string   `mapstructure:"prompt_template"`
	ReferencesTemplate   string   `mapstructure:"references_template"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Validate checks the fields every command needs. The LLM URI is checked
// separately by commands that call the model.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Context.SampleLimit < 0 {
		return fmt.Errorf("context.sample_limit must be >= 0, got %d", c.Context.SampleLimit)
	}
	if c.References.Limit < 0 {
		return fmt.Errorf("references.limit must be >= 0, got %d", c.References.Limit)
	}
	if c.LLM.URI != "" {
		if _, err := ParseAIURI(c.LLM.URI); err != nil {
			return fmt.Errorf("llm.uri: %w", err)
		}
	}
	if c.Embedding.URI != "" {
		if _, err := ParseAIURI(c.Embedding.URI); err != nil {
			return fmt.Errorf("embedding.uri: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}
