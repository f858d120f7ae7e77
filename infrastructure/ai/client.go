// Package ai talks to the OpenAI-compatible chat-completions collaborator
// that powers the weekly summary and the habit coach. Every failure mode
// is recovered locally with a deterministic fallback; callers never
// surface a hard error to the end user.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RetryCooldown is how long quota errors silence outbound calls.
const RetryCooldown = time.Hour

var (
	// ErrQuotaExceeded marks a quota/rate-limit response from the
	// collaborator. The caller serves the fallback and the client stays
	// in cooldown for RetryCooldown.
	ErrQuotaExceeded = errors.New("ai: quota exceeded")
	// ErrCoolingDown is returned without any network call while the
	// quota cooldown is active.
	ErrCoolingDown = errors.New("ai: cooling down after quota error")
	// ErrNoAPIKey is returned when the client has no credentials.
	ErrNoAPIKey = errors.New("ai: api key not configured")
)

// Quota is the injected cooldown state: a single nextRetryAt timestamp
// guarded by a mutex. The read-check-then-act around it is deliberately
// coarse; the cost of a lost race is one extra failed call.
type Quota struct {
	mu          sync.Mutex
	nextRetryAt time.Time
}

// NewQuota creates an idle quota state.
func NewQuota() *Quota {
	return &Quota{}
}

// ShouldThrottle reports whether the cooldown is active, clearing it
// once it has expired.
func (q *Quota) ShouldThrottle(now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.nextRetryAt.IsZero() {
		return false
	}
	if now.Before(q.nextRetryAt) {
		return true
	}
	q.nextRetryAt = time.Time{}
	return false
}

// MarkExceeded starts a cooldown and returns its expiry.
func (q *Quota) MarkExceeded(now time.Time) time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextRetryAt = now.Add(RetryCooldown)
	return q.nextRetryAt
}

// RetryAt returns the cooldown expiry, if one is active.
func (q *Quota) RetryAt() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.nextRetryAt.IsZero() {
		return time.Time{}, false
	}
	return q.nextRetryAt, true
}

// Config holds the collaborator endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is the chat-completions client. Outbound calls run through a
// circuit breaker so a flapping collaborator degrades to fallbacks
// instead of queueing requests.
type Client struct {
	cfg     Config
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
	quota   *Quota
	logger  *zap.Logger
	now     func() time.Time
}

// NewClient creates a chat client around the given quota state.
func NewClient(cfg Config, quota *Quota, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ai-collaborator",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		quota:   quota,
		logger:  logger,
		now:     time.Now,
	}
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// RetryAt exposes the active cooldown expiry for fallback texts.
func (c *Client) RetryAt() (time.Time, bool) {
	return c.quota.RetryAt()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code string `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

// Complete sends one system+user exchange and returns the completion
// text. Quota errors flip the cooldown before returning; while the
// cooldown is active no network call is made at all.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if !c.Enabled() {
		return "", ErrNoAPIKey
	}
	if c.quota.ShouldThrottle(c.now()) {
		return "", ErrCoolingDown
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.complete(ctx, system, user, temperature)
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			retryAt := c.quota.MarkExceeded(c.now())
			c.logger.Warn("ai quota exceeded, serving fallbacks",
				zap.Time("retryAt", retryAt))
		}
		return "", err
	}
	return result.(string), nil
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ai: reading response: %w", err)
	}

	var parsed chatResponse
	// A non-JSON error body is still a useful status code.
	_ = json.Unmarshal(body, &parsed)

	if isQuotaResponse(resp.StatusCode, &parsed) {
		return "", ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: request failed with status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("ai: no completion returned")
	}
	return parsed.Choices[0].Message.Content, nil
}

// isQuotaResponse matches the collaborator's quota signals: HTTP 429 or
// an insufficient_quota code/type in the error body.
func isQuotaResponse(status int, resp *chatResponse) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if resp.Error != nil {
		if resp.Error.Code == "insufficient_quota" || resp.Error.Type == "insufficient_quota" {
			return true
		}
	}
	return false
}
