package config

import "time"

// CacheConfig holds the article cache settings.
type CacheConfig struct {
	Dir       string `env:"CACHE_DIR" envDefault:"./cache"`
	Extension string `env:"CACHE_EXTENSION" envDefault:".md"`
	LockDir   string `env:"LOCK_DIR" envDefault:""`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	// Primary OpenAI
	APIKey string `env:"LLM_API_KEY"`
	Model  string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	// Alternative providers
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY" envDefault:""`
	AnthropicModel   string `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`
	GoogleAPIKey     string `env:"GOOGLE_API_KEY" envDefault:""`
	GoogleModel      string `env:"GOOGLE_MODEL" envDefault:"gemini-2.5-flash-lite"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY" envDefault:""`
	OpenRouterModel  string `env:"OPENROUTER_MODEL" envDefault:"meta-llama/llama-3.1-8b-instruct"`

	RateLimitRPS int `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Circuit breaker
	CircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`

	// Per-task model overrides
	TranslateModel  string `env:"LLM_TRANSLATE_MODEL" envDefault:""`
	SynthesizeModel string `env:"LLM_SYNTHESIZE_MODEL" envDefault:""`
	SelectModel     string `env:"LLM_SELECT_MODEL" envDefault:""`
}

// MatchConfig holds the fuzzy cache-match settings.
type MatchConfig struct {
	Enabled             bool          `env:"FUZZY_MATCH_ENABLED" envDefault:"true"`
	Model               string        `env:"MATCH_MODEL" envDefault:"gpt-5-mini"`
	SimilarityThreshold float64       `env:"MATCH_SIMILARITY_THRESHOLD" envDefault:"0.95"`
	Timeout             time.Duration `env:"MATCH_TIMEOUT" envDefault:"30s"`
	MaxTokens           int           `env:"MATCH_MAX_TOKENS" envDefault:"1000"`
	Temperature         float32       `env:"MATCH_TEMPERATURE" envDefault:"0.2"`
}

// SynthesisConfig holds the translate/synthesize pipeline settings.
type SynthesisConfig struct {
	MaxTranslations      int `env:"MAX_TRANSLATIONS" envDefault:"5"`
	TranslationWorkers   int `env:"TRANSLATION_WORKERS" envDefault:"10"`
	MaxArticleChars      int `env:"MAX_ARTICLE_CHARS" envDefault:"128000"`
	TranslationMaxTokens int `env:"TRANSLATION_MAX_TOKENS" envDefault:"64000"`
	SynthesisMaxTokens   int `env:"SYNTHESIS_MAX_TOKENS" envDefault:"64000"`
	SelectionMaxTokens   int `env:"SELECTION_MAX_TOKENS" envDefault:"1000"`
}

// WikiConfig holds the MediaWiki API client settings.
type WikiConfig struct {
	BaseURLTemplate string        `env:"WIKI_BASE_URL_TEMPLATE" envDefault:"https://%s.wikipedia.org/w/api.php"`
	UserAgent       string        `env:"WIKI_USER_AGENT" envDefault:"wikisynth/1.0 (multilingual article synthesizer)"`
	RPS             float64       `env:"WIKI_RPS" envDefault:"5"`
	Timeout         time.Duration `env:"WIKI_TIMEOUT" envDefault:"30s"`
	PageSize        int           `env:"WIKI_PAGE_SIZE" envDefault:"20000"`
	MaxRetries      int           `env:"WIKI_MAX_RETRIES" envDefault:"3"`
	SearchLimit     int           `env:"WIKI_SEARCH_LIMIT" envDefault:"5"`
}
