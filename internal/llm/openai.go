package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("openai client not initialized")

// Client defines the completion call used by the chat pipeline.  The prompt
// already contains records, history and the new question; language is the
// name of the language the reply must be written in.
type Client interface {
	Complete(ctx context.Context, prompt, language string) (string, error)
}

// OpenAIClient calls the OpenAI chat completion API.
type OpenAIClient struct {
	client    *openai.Client
	chatModel string
}

// NewOpenAIClient constructs an OpenAI-backed LLM client.  An empty apiKey
// yields a client whose calls fail with ErrNotConfigured; the chat pipeline
// turns that into its apology reply.
func NewOpenAIClient(apiKey, baseURL, chatModel string) *OpenAIClient {
	if chatModel == "" {
		// default to a modern small model; can be overridden via env
		chatModel = "gpt-4o-mini"
	}
	c := &OpenAIClient{chatModel: chatModel}
	if apiKey == "" {
		return c
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c.client = openai.NewClientWithConfig(cfg)
	return c
}

// Complete sends the composed prompt and returns the assistant's reply as
// plain markdown text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt, language string) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage(language)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func systemMessage(language string) string {
	return fmt.Sprintf("You are a helpful medical assistant. Write your whole answer in %s. "+
		"Answer in natural prose with markdown where it helps; never answer with JSON.", language)
}
