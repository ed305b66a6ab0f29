package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	OutputRaw  = "raw"
	OutputJSON = "json"
)

type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Caption  CaptionConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Claude   AnthropicConfig
	Tracing  TracingConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Port              string        `env:"PORT" envDefault:"3000"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
}

// CaptionConfig selects the provider backend and the response shape.
type CaptionConfig struct {
	Provider string `env:"CAPTION_PROVIDER" envDefault:"gemini"`
	Output   string `env:"CAPTION_OUTPUT" envDefault:"raw"`
}

type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
}

type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

type AnthropicConfig struct {
	APIKey    string `env:"ANTHROPIC_API_KEY"`
	BaseURL   string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	Model     string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5"`
	MaxTokens int64  `env:"ANTHROPIC_MAX_TOKENS" envDefault:"1024"`
}

type TracingConfig struct {
	Enable      bool   `env:"TRACING_ENABLE" envDefault:"false"`
	Protocol    string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"grpc"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"image-captioner"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Caption.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown CAPTION_PROVIDER %q", c.Caption.Provider)
	}
	switch c.Caption.Output {
	case OutputRaw, OutputJSON:
	default:
		return fmt.Errorf("unknown CAPTION_OUTPUT %q", c.Caption.Output)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	return nil
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	switch c.Caption.Provider {
	case ProviderOpenAI:
		return c.OpenAI.APIKey
	case ProviderAnthropic:
		return c.Claude.APIKey
	default:
		return c.Gemini.APIKey
	}
}
