package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openaigo "github.com/sashabaranov/go-openai"
)

// OpenAIConfig describes an OpenAI-compatible judge. With this transport the
// discovery candidates are model names rather than URLs.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	ExtraHeaders map[string]string
	MaxTokens    int
}

type OpenAITransport struct {
	client    *openaigo.Client
	maxTokens int
}

func NewOpenAITransport(cfg OpenAIConfig, hc *http.Client) *OpenAITransport {
	oc := openaigo.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if len(cfg.ExtraHeaders) > 0 {
		hc = withHeaders(hc, cfg.ExtraHeaders)
	}
	oc.HTTPClient = hc
	return &OpenAITransport{client: openaigo.NewClientWithConfig(oc), maxTokens: cfg.MaxTokens}
}

func (t *OpenAITransport) Send(ctx context.Context, model, prompt string) Outcome {
	resp, err := t.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: t.maxTokens,
	})
	if err != nil {
		status := statusOf(err)
		if status == http.StatusTooManyRequests {
			return failed(RateLimited, status, errors.Join(ErrRateLimited, err))
		}
		return failed(Transient, status, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return failed(Transient, http.StatusOK, ErrMalformedEnvelope)
	}
	return succeeded(resp.Choices[0].Message.Content, http.StatusOK)
}

// statusOf digs the HTTP status out of go-openai errors; zero when there was none.
func statusOf(err error) int {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
