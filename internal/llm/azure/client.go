// Package azure wraps the hosted Azure OpenAI chat deployment that
// turns assembled prompts into design nudges.
package azure

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"nudge/internal/models"
)

const (
	defaultAPIVersion = "2023-05-15"
	defaultEndpoint   = "https://azureapi.zotgpt.uci.edu"

	// Nudges are one or two sentences; a small completion budget keeps
	// the model from drifting into full design answers.
	maxCompletionTokens = 150
	temperature         = 1.0
)

// ErrMissingCredentials is returned when the API key or deployment id
// is not configured.
var ErrMissingCredentials = errors.New("NUDGE_API_KEY and NUDGE_DEPLOYMENT_ID must be set")

// Client is a ChatProvider backed by an Azure OpenAI deployment.
type Client struct {
	api        *openai.Client
	deployment string
}

// Configured reports whether the remote LLM credentials are present,
// without constructing a client. Used by the health endpoint.
func Configured() bool {
	return os.Getenv("NUDGE_API_KEY") != "" && os.Getenv("NUDGE_DEPLOYMENT_ID") != ""
}

// NewFromEnv builds a client from NUDGE_API_KEY, NUDGE_DEPLOYMENT_ID,
// NUDGE_API_VERSION and NUDGE_AZURE_ENDPOINT.
func NewFromEnv() (*Client, error) {
	key := os.Getenv("NUDGE_API_KEY")
	deployment := os.Getenv("NUDGE_DEPLOYMENT_ID")
	if key == "" || deployment == "" {
		return nil, ErrMissingCredentials
	}
	endpoint := os.Getenv("NUDGE_AZURE_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	cfg := openai.DefaultAzureConfig(key, endpoint)
	if v := os.Getenv("NUDGE_API_VERSION"); v != "" {
		cfg.APIVersion = v
	} else {
		cfg.APIVersion = defaultAPIVersion
	}
	cfg.AzureModelMapperFunc = func(string) string { return deployment }
	return &Client{api: openai.NewClientWithConfig(cfg), deployment: deployment}, nil
}

// Complete sends the messages as a single-turn chat completion and
// returns the generated text. Failures surface to the caller; there is
// no retry policy.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.deployment,
		Temperature: temperature,
		MaxTokens:   maxCompletionTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
