package azopenai

import (
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// Config holds Azure OpenAI connection settings.
type Config struct {
	Endpoint           string        `envconfig:"ENDPOINT" split_words:"true" required:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Deployment         string        `envconfig:"DEPLOYMENT" split_words:"true" default:"gpt-4.1"`
	APIVersion         string        `envconfig:"API_VERSION" split_words:"true" default:"2025-01-01-preview"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.1"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// NewClient creates an OpenAI SDK client configured for Azure OpenAI.
// Returns nil when the endpoint or key is missing.
func NewClient(cfg Config) *openaisdk.Client {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	apiKey := strings.TrimSpace(cfg.APIKey)
	if endpoint == "" || apiKey == "" {
		return nil
	}

	opts := []option.RequestOption{
		azure.WithEndpoint(endpoint, strings.TrimSpace(cfg.APIVersion)),
		azure.WithAPIKey(apiKey),
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
