package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	BackendPostgres = "postgres"
	BackendPinecone = "pinecone"
	BackendMem0     = "mem0"
)

type Config struct {
	Port  string `env:"PORT" envDefault:"8001"`
	Debug bool   `env:"DEBUG" envDefault:"false"`

	ModelProvider   string `env:"MODEL_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`
	WebToolsEnabled bool   `env:"WEB_TOOLS_ENABLED" envDefault:"true"`

	MemoryBackend     string `env:"MEMORY_BACKEND" envDefault:"postgres"`
	DatabaseURL       string `env:"DB_URL"`
	PineconeAPIKey    string `env:"PINECONE_API_KEY"`
	PineconeIndexName string `env:"PINECONE_INDEX_NAME" envDefault:"prepwise-memory-index"`
	Mem0APIKey        string `env:"MEM0_API_KEY"`
	Mem0BaseURL       string `env:"MEM0_BASE_URL" envDefault:"https://api.mem0.ai"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.ModelProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q", c.ModelProvider)
	}

	switch c.MemoryBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DB_URL environment variable is required")
		}
	case BackendPinecone:
		if c.PineconeAPIKey == "" {
			return fmt.Errorf("PINECONE_API_KEY environment variable is required")
		}
		// Embeddings for the semantic store always come from OpenAI.
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required for the pinecone backend")
		}
	case BackendMem0:
		if c.Mem0APIKey == "" {
			return fmt.Errorf("MEM0_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unknown MEMORY_BACKEND %q", c.MemoryBackend)
	}

	return nil
}
