package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`

	Cache     CacheConfig
	LLM       LLMConfig
	Match     MatchConfig
	Synthesis SynthesisConfig
	Wiki      WikiConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyKeyAliases(cfg)

	if cfg.Cache.LockDir == "" {
		cfg.Cache.LockDir = filepath.Join(cfg.Cache.Dir, ".locks")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c *Config) Validate() error {
	if c.Match.SimilarityThreshold < 0 || c.Match.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: MATCH_SIMILARITY_THRESHOLD must be within [0,1], got %v", apperrors.ErrInvalidInput, c.Match.SimilarityThreshold)
	}

	if c.Synthesis.MaxTranslations < 1 {
		return fmt.Errorf("%w: MAX_TRANSLATIONS must be positive, got %d", apperrors.ErrInvalidInput, c.Synthesis.MaxTranslations)
	}

	if c.Synthesis.TranslationWorkers < 1 {
		return fmt.Errorf("%w: TRANSLATION_WORKERS must be positive, got %d", apperrors.ErrInvalidInput, c.Synthesis.TranslationWorkers)
	}

	if c.Wiki.PageSize < 1 {
		return fmt.Errorf("%w: WIKI_PAGE_SIZE must be positive, got %d", apperrors.ErrInvalidInput, c.Wiki.PageSize)
	}

	if !strings.Contains(c.Wiki.BaseURLTemplate, "%s") {
		return fmt.Errorf("%w: WIKI_BASE_URL_TEMPLATE must contain %%s for the language", apperrors.ErrInvalidInput)
	}

	if !strings.HasPrefix(c.Cache.Extension, ".") {
		return fmt.Errorf("%w: CACHE_EXTENSION must start with a dot, got %q", apperrors.ErrInvalidInput, c.Cache.Extension)
	}

	return nil
}

// applyKeyAliases accepts the vendor-named key variables when the generic ones are unset.
func applyKeyAliases(cfg *Config) {
	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLM.APIKey)
	}

	if !hasEnv("ANTHROPIC_API_KEY") {
		setStringFromEnv("CLAUDE_API_KEY", &cfg.LLM.AnthropicAPIKey)
	}

	if !hasEnv("GOOGLE_API_KEY") {
		setStringFromEnv("GEMINI_API_KEY", &cfg.LLM.GoogleAPIKey)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
