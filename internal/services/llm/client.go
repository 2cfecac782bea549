package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lectern/internal/language"
	"lectern/internal/services"
)

const (
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps a chat completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// TranslateRequest is one field to translate.
type TranslateRequest struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	// Field names the episode field, giving the model a hint about length and register.
	Field string
}

const translationSystemPrompt = `You translate catalog text for a multilingual library of spoken-word episodes.
Translate the user's "text" from source_language into target_language.
Keep proper nouns, numbers and formatting. Do not add commentary or notes.
Titles stay short; summaries keep every sentence.
Respond with JSON only: {"translation": "<translated text>"}`

// Translate returns text rendered in the target language. Provider failures
// and empty translations are tagged with services.ErrTranslationProvider.
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", errors.New("llm translate: text required")
	}
	userPrompt, err := json.Marshal(map[string]string{
		"source_language": language.DisplayName(req.SourceLanguage),
		"target_language": language.DisplayName(req.TargetLanguage),
		"field":           req.Field,
		"text":            text,
	})
	if err != nil {
		return "", fmt.Errorf("llm translate: encode prompt: %w", err)
	}
	raw, err := c.CompleteJSON(ctx, translationSystemPrompt, string(userPrompt))
	if err != nil {
		return "", services.Wrap(services.ErrTranslationProvider, "llm", "translate", req.TargetLanguage, err)
	}
	var parsed struct {
		Translation string `json:"translation"`
	}
	if err := DecodeLLMJSON(raw, &parsed); err != nil {
		return "", services.Wrap(services.ErrTranslationProvider, "llm", "translate", "parse payload", err)
	}
	translation := strings.TrimSpace(parsed.Translation)
	if translation == "" {
		return "", services.Wrap(services.ErrTranslationProvider, "llm", "translate",
			"empty translation (payload snippet: "+snippet(raw)+")", nil)
	}
	return translation, nil
}

// CompleteJSON issues a JSON-only chat completion request with the supplied
// prompts and returns the raw content produced by the model.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return "", errors.New("llm complete: system prompt required")
	case userPrompt == "":
		return "", errors.New("llm complete: user prompt required")
	case c.cfg.APIKey == "":
		return "", errors.New("llm complete: api key required")
	}
	return c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}, "llm complete")
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	raw, err := c.CompleteJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(raw, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}
