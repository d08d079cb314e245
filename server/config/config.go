package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tidwall/gjson"

	"rps-judge/server/llm"
)

const (
	ProviderREST   = "rest"
	ProviderOpenAI = "openai"
)

// Config is read from the environment. Endpoints default to the Gemini
// generateContent models, most preferred first.
type Config struct {
	Provider  string   `envconfig:"JUDGE_PROVIDER" default:"rest"`
	Endpoints []string `envconfig:"JUDGE_ENDPOINTS" default:"https://generativelanguage.googleapis.com/v1/models/gemini-2.5-flash:generateContent,https://generativelanguage.googleapis.com/v1/models/gemini-1.5-flash:generateContent,https://generativelanguage.googleapis.com/v1/models/gemini-1.5-pro:generateContent,https://generativelanguage.googleapis.com/v1/models/gemini-pro:generateContent"`

	APIKey     string `envconfig:"JUDGE_API_KEY"`
	APIKeyFile string `envconfig:"JUDGE_API_KEY_FILE"`
	KeyParam   string `envconfig:"JUDGE_API_KEY_PARAM" default:"key"`
	KeyHeader  string `envconfig:"JUDGE_API_KEY_HEADER"`
	KeyPrefix  string `envconfig:"JUDGE_API_KEY_PREFIX"`

	RequestTemplate string `envconfig:"JUDGE_REQUEST_TEMPLATE"`
	PromptPath      string `envconfig:"JUDGE_PROMPT_PATH" default:"contents.0.parts.0.text"`
	ResponsePath    string `envconfig:"JUDGE_RESPONSE_PATH" default:"candidates.0.content.parts.0.text"`

	OpenAIBaseURL     string   `envconfig:"JUDGE_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModels      []string `envconfig:"JUDGE_OPENAI_MODELS" default:"gpt-4o-mini,gpt-4o"`
	OpenAIMaxTokens   int    `envconfig:"JUDGE_OPENAI_MAX_TOKENS" default:"0"`
	OpenRouterSiteURL string `envconfig:"JUDGE_OPENROUTER_SITE_URL"`
	OpenRouterTitle   string `envconfig:"JUDGE_OPENROUTER_TITLE"`

	ProbeTimeout   time.Duration `envconfig:"JUDGE_PROBE_TIMEOUT" default:"5s"`
	CallTimeout    time.Duration `envconfig:"JUDGE_CALL_TIMEOUT" default:"30s"`
	MaxAttempts    int           `envconfig:"JUDGE_MAX_ATTEMPTS" default:"5"`
	BackoffBase    time.Duration `envconfig:"JUDGE_BACKOFF_BASE" default:"5s"`
	BackoffCeiling time.Duration `envconfig:"JUDGE_BACKOFF_CEILING" default:"60s"`
	RetryDelay     time.Duration `envconfig:"JUDGE_RETRY_DELAY" default:"2s"`

	BombChance float64 `envconfig:"BOT_BOMB_CHANCE" default:"0.12"`
	BotSeed    int64   `envconfig:"BOT_SEED" default:"0"`

	PromptTemplateFile string `envconfig:"PROMPT_TEMPLATE_FILE"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"warn"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"console"`
	OpsAddr     string `envconfig:"OPS_ADDR"`
	NoColor     string `envconfig:"NO_COLOR"`
}

// Load reads the environment (call godotenv.Load first to pick up .env) and
// fills a missing API key from a secret file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = readKeyFile(cfg.APIKeyFile)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readKeyFile tries the explicit path, then the usual secret locations.
func readKeyFile(explicit string) string {
	var candidates []string
	if p := strings.TrimSpace(explicit); p != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates,
		"./secrets/judge_api_key.txt",
		"./judge_api_key.txt",
		"/run/secrets/judge_api_key",
	)
	for _, path := range candidates {
		if b, err := os.ReadFile(path); err == nil {
			if key := strings.TrimSpace(string(b)); key != "" {
				return key
			}
		}
	}
	return ""
}

func (c *Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("API key missing: set JUDGE_API_KEY or JUDGE_API_KEY_FILE"))
	}
	if len(c.candidates()) == 0 {
		errs = append(errs, errors.New("no judge candidates: JUDGE_ENDPOINTS or JUDGE_OPENAI_MODELS is empty"))
	}
	switch c.Provider {
	case ProviderREST:
		if c.RequestTemplate != "" && !gjson.Valid(c.RequestTemplate) {
			errs = append(errs, errors.New("JUDGE_REQUEST_TEMPLATE is not valid JSON"))
		}
	case ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown JUDGE_PROVIDER %q (want %s or %s)", c.Provider, ProviderREST, ProviderOpenAI))
	}
	if c.BombChance < 0 || c.BombChance > 1 {
		errs = append(errs, fmt.Errorf("BOT_BOMB_CHANCE %v outside [0,1]", c.BombChance))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("JUDGE_MAX_ATTEMPTS must be at least 1, got %d", c.MaxAttempts))
	}
	return errors.Join(errs...)
}

func (c *Config) candidates() []string {
	list := c.Endpoints
	if c.Provider == ProviderOpenAI {
		list = c.OpenAIModels
	}
	var out []string
	for _, ep := range list {
		if ep = strings.TrimSpace(ep); ep != "" {
			out = append(out, ep)
		}
	}
	return out
}

// Candidates are the endpoints (or, for the openai provider, model names) to
// probe, in priority order.
func (c *Config) Candidates() []string { return c.candidates() }

func (c *Config) RetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts:    c.MaxAttempts,
		BackoffBase:    c.BackoffBase,
		BackoffCeiling: c.BackoffCeiling,
		RetryDelay:     c.RetryDelay,
	}
}

// Transport builds the judge transport for the configured provider. The HTTP
// client timeout backs up the per-attempt context deadline.
func (c *Config) Transport() llm.Transport {
	hc := &http.Client{Timeout: max(c.CallTimeout, c.ProbeTimeout)}
	if c.Provider == ProviderOpenAI {
		var headers map[string]string
		if llm.IsOpenRouter(c.OpenAIBaseURL) {
			headers = llm.OpenRouterHeaders(c.OpenRouterSiteURL, c.OpenRouterTitle)
		}
		return llm.NewOpenAITransport(llm.OpenAIConfig{
			APIKey:       c.APIKey,
			BaseURL:      c.OpenAIBaseURL,
			ExtraHeaders: headers,
			MaxTokens:    c.OpenAIMaxTokens,
		}, hc)
	}
	return llm.NewRESTTransport(llm.RESTConfig{
		APIKey:          c.APIKey,
		KeyParam:        c.KeyParam,
		KeyHeader:       c.KeyHeader,
		KeyPrefix:       c.KeyPrefix,
		RequestTemplate: c.RequestTemplate,
		PromptPath:      c.PromptPath,
		ResponsePath:    c.ResponsePath,
	}, hc)
}

// Color reports whether console output may use ANSI colors. Any non-empty
// NO_COLOR disables them.
func (c *Config) Color() bool { return strings.TrimSpace(c.NoColor) == "" }
