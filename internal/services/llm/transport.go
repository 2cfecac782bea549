package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		// Completion-style providers put the content here instead.
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// content returns the first non-empty choice content with its finish reason
// and any refusal text.
func (r chatResponse) content() (content, finishReason, refusal string) {
	for _, choice := range r.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = strings.TrimSpace(choice.Message.Refusal)
		}
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, finishReason, refusal
		}
		if text := strings.TrimSpace(choice.Text); text != "" {
			return text, finishReason, refusal
		}
	}
	return "", finishReason, refusal
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, snippet(e.Body))
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op, e.FinishReason, e.Refusal, e.Snippet)
}

// complete sends payload, retrying transient failures with backoff.
func (c *Client) complete(ctx context.Context, payload chatRequest, op string) (string, error) {
	attempts := max(c.retryMaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, body, err := c.send(ctx, payload)
		if err == nil {
			text, finish, refusal := resp.content()
			if text != "" {
				return text, nil
			}
			err = &emptyContentError{Op: op, FinishReason: finish, Refusal: refusal, Snippet: snippet(string(body))}
		}
		lastErr = err

		delay, retry := c.retryAfter(ctx, err, attempt, attempts)
		if !retry {
			if attempt > 1 {
				return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) send(ctx context.Context, payload chatRequest) (chatResponse, []byte, error) {
	var parsed chatResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return parsed, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return parsed, nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return parsed, nil, fmt.Errorf("llm request: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return parsed, nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return parsed, body, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body), RetryAfter: retryAfter}
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return parsed, body, fmt.Errorf("llm request: decode response: %w", err)
	}
	if parsed.Error != nil {
		return parsed, body, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	return parsed, body, nil
}

// retryAfter decides whether err is transient and how long to wait before the
// next attempt.
func (c *Client) retryAfter(ctx context.Context, err error, attempt, attempts int) (time.Duration, bool) {
	if attempt >= attempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var empty *emptyContentError
	if errors.As(err, &empty) {
		return c.backoff(attempt), true
	}

	var status *httpStatusError
	if errors.As(err, &status) {
		if status.StatusCode != http.StatusRequestTimeout &&
			status.StatusCode != http.StatusTooManyRequests &&
			status.StatusCode < http.StatusInternalServerError {
			return 0, false
		}
		if status.RetryAfter > 0 {
			return min(status.RetryAfter, c.maxDelay()), true
		}
		return c.backoff(attempt), true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles the base delay per attempt: base, 2*base, 4*base, capped.
func (c *Client) backoff(attempt int) time.Duration {
	if c.retryBaseDelay <= 0 {
		return 0
	}
	delay := c.retryBaseDelay
	for i := 1; i < attempt && delay < c.maxDelay(); i++ {
		delay *= 2
	}
	return min(delay, c.maxDelay())
}

func (c *Client) maxDelay() time.Duration {
	if c.retryMaxDelay > 0 {
		return c.retryMaxDelay
	}
	return defaultRetryMaxDelay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
