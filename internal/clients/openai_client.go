package clients

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	Client *openai.Client
	apiKey string
}

// NewOpenAIClient builds a chat client with its own HTTP timeout. baseURL
// may be empty to use the public API.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = OPENAI_TIMEOUT
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	config.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	slog.Info("[OpenAIClient] OpenAI client initialized with custom HTTP timeout", slog.Duration("timeout", timeout))
	return &OpenAIClient{
		Client: openai.NewClientWithConfig(config),
		apiKey: apiKey,
	}
}

func (o *OpenAIClient) HasCredentials() bool {
	return o != nil && strings.TrimSpace(o.apiKey) != ""
}
