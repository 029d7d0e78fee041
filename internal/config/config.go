package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"medassist/internal/core"
	"medassist/internal/translate"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	OpenAIAPIKey     string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `mapstructure:"OPENAI_BASE_URL"`
	ChatModel        string        `mapstructure:"OPENAI_MODEL_CHAT"`
	TranslateAPIKey  string        `mapstructure:"TRANSLATE_API_KEY"`
	TranslateModel   string        `mapstructure:"TRANSLATE_MODEL"`
	TranslateTimeout time.Duration `mapstructure:"TRANSLATE_TIMEOUT"`
	LLMTimeout       time.Duration `mapstructure:"LLM_TIMEOUT"`
	BaseLanguage     string        `mapstructure:"BASE_LANGUAGE"`
	RecordLimit      int           `mapstructure:"RECORD_LIMIT"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"DATABASE_URL",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
	"OPENAI_MODEL_CHAT",
	"TRANSLATE_API_KEY",
	"TRANSLATE_MODEL",
	"TRANSLATE_TIMEOUT",
	"LLM_TIMEOUT",
	"BASE_LANGUAGE",
	"RECORD_LIMIT",
	"CORS_ORIGINS",
}

// Load reads configuration from the environment and an optional .env file in
// the working directory.  DATABASE_URL is not checked here because the chat
// command can run against an empty record store; commands that need the
// database call RequireDatabase.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OPENAI_MODEL_CHAT", "gpt-4o-mini")
	v.SetDefault("TRANSLATE_TIMEOUT", "15s")
	v.SetDefault("LLM_TIMEOUT", "60s")
	v.SetDefault("BASE_LANGUAGE", translate.DefaultBaseLanguage)
	v.SetDefault("RECORD_LIMIT", 20)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	if cfg.TranslateAPIKey == "" {
		cfg.TranslateAPIKey = cfg.OpenAIAPIKey
	}
	if cfg.TranslateModel == "" {
		cfg.TranslateModel = cfg.ChatModel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks values that would otherwise fail late, in the middle of a
// conversation.
func (c *Config) Validate() error {
	if _, ok := translate.LookupCode(c.BaseLanguage); !ok {
		return fmt.Errorf("BASE_LANGUAGE %q is not a supported language", c.BaseLanguage)
	}
	if !core.HasCannedText(c.BaseLanguage) {
		return fmt.Errorf("BASE_LANGUAGE %q has no canned greeting and apology text", c.BaseLanguage)
	}
	if c.RecordLimit <= 0 {
		return fmt.Errorf("RECORD_LIMIT must be positive, got %d", c.RecordLimit)
	}
	if c.TranslateTimeout <= 0 {
		return fmt.Errorf("TRANSLATE_TIMEOUT must be positive, got %s", c.TranslateTimeout)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout)
	}
	return nil
}

// RequireDatabase reports an error when no DATABASE_URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
