package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranslator calls an OpenAI-compatible chat completion endpoint to
// translate one message at a time.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslator returns nil when apiKey is empty so that the gateway
// reports ErrNoCredentials instead of sending unauthenticated requests.
func NewOpenAITranslator(apiKey, baseURL, model string) *OpenAITranslator {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Translate implements Client.
func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error) {
	if t == nil || t.client == nil {
		return "", ErrNoCredentials
	}
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction(sourceCode, targetCode)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyTranslation
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func instruction(sourceCode, targetCode string) string {
	src, _ := NameForCode(sourceCode)
	dst, _ := NameForCode(targetCode)
	return fmt.Sprintf("Translate the user's message from %s (%s) to %s (%s). "+
		"Keep markdown formatting, numbers, units and medicine names unchanged. "+
		"Reply with the translation only.", src, sourceCode, dst, targetCode)
}

// classify leaves API-level failures (a rejected request, an error status)
// and deadline errors as ordinary per-message errors, and marks everything
// else, typically network failures, as ErrTransport.
func classify(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
