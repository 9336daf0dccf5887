package translate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/planning-tool/planner-server/internal/models"
	"google.golang.org/genai"
)

const anthropicModelsURL = "https://api.anthropic.com/v1/models"

// KeyChecker probes a provider to see whether an API key is accepted
type KeyChecker interface {
	CheckKey(ctx context.Context, provider, apiKey, baseURL string) error
}

// HTTPKeyChecker lists the provider's models with the key: OpenAI through
// go-openai, Google through genai and Anthropic with a plain GET.
type HTTPKeyChecker struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPKeyChecker creates a checker whose probes give up after timeout
func NewHTTPKeyChecker(timeout time.Duration) *HTTPKeyChecker {
	return &HTTPKeyChecker{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// CheckKey returns nil when the provider accepts the key
func (c *HTTPKeyChecker) CheckKey(ctx context.Context, provider, apiKey, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch provider {
	case models.ProviderOpenAI:
		_, err := newClient(apiKey, baseURL, c.timeout).ListModels(ctx)
		return err
	case models.ProviderAnthropic:
		return c.probe(ctx, anthropicModelsURL, map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": "2023-06-01",
		})
	case models.ProviderGoogle:
		return c.checkGoogle(ctx, apiKey)
	default:
		return fmt.Errorf("key testing is not supported for provider %q", provider)
	}
}

func (c *HTTPKeyChecker) probe(ctx context.Context, url string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPKeyChecker) checkGoogle(ctx context.Context, apiKey string) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.client,
	})
	if err != nil {
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}

	_, err = client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	return err
}
