// Package translate talks to the LLM providers used for Thai to English
// translation and for validating stored provider keys.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a Thai to English translator. Translate the Thai text to natural English. " +
	"Only respond with the translation, nothing else."

// Translator turns Thai text into English using the caller's provider key
type Translator interface {
	Translate(ctx context.Context, apiKey, text string) (string, error)
}

// Options configures the OpenAI translator
type Options struct {
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// OpenAITranslator calls the chat completions API
type OpenAITranslator struct {
	opts Options
}

// NewOpenAITranslator creates a translator; zero options fall back to defaults
func NewOpenAITranslator(opts Options) *OpenAITranslator {
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	return &OpenAITranslator{opts: opts}
}

func newClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg)
}

// Translate sends text to the model and returns the trimmed reply
func (t *OpenAITranslator) Translate(ctx context.Context, apiKey, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	client := newClient(apiKey, t.opts.BaseURL, t.opts.Timeout)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   t.opts.MaxTokens,
		Temperature: t.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("translation response had no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
