// Package llm wraps the Grok (OpenAI-compatible) chat-completions endpoint
// with rate limiting, a circuit breaker, bounded retries, and an optional
// redis response cache.
package llm

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/parlayiq/picks-engine/internal/cache"
	"github.com/parlayiq/picks-engine/pkg/config"
)

// Client talks to one OpenAI-compatible completion endpoint. The model
// name is an opaque string passed through on every request.
type Client struct {
	api            *openai.Client
	model          string
	temperature    float64
	cache          *cache.Service
	cacheTTL       time.Duration
	logger         *logrus.Logger
	limiter        *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	retryAttempts  int
}

func NewClient(cfg *config.Config, cacheSvc *cache.Service, logger *logrus.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.XAIAPIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.XAIBaseURL, "/")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "grok-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Info("LLM circuit breaker state changed")
		},
	})

	perMinute := cfg.LLMRateLimit
	if perMinute <= 0 {
		perMinute = 10
	}

	return &Client{
		api:            openai.NewClientWithConfig(clientConfig),
		model:          cfg.LLMModel,
		temperature:    cfg.LLMTemp,
		cache:          cacheSvc,
		cacheTTL:       time.Duration(cfg.LLMCacheTTL) * time.Second,
		logger:         logger,
		limiter:        rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		circuitBreaker: cb,
		retryAttempts:  3,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one user prompt and returns the raw reply text. The reply
// may wrap JSON in prose; callers extract structure through pkg/llmjson.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithTemperature(ctx, prompt, c.temperature)
}

// CompleteWithTemperature is Complete with an explicit sampling temperature.
func (c *Client) CompleteWithTemperature(ctx context.Context, prompt string, temperature float64) (string, error) {
	cacheKey := fmt.Sprintf("llm:response:%x", md5.Sum([]byte(c.model+prompt)))
	if c.cache != nil {
		var cached string
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil && cached != "" {
			c.logger.Debug("LLM cache hit")
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limiter: %w", err)
	}

	start := time.Now()
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.completeWithRetry(ctx, prompt, temperature)
	})
	if err != nil {
		c.logger.WithError(err).WithField("elapsed_ms", time.Since(start).Milliseconds()).Error("LLM request failed")
		return "", fmt.Errorf("llm request failed: %w", err)
	}

	text := result.(string)
	if c.cache != nil && text != "" {
		_ = c.cache.Set(ctx, cacheKey, text, c.cacheTTL)
	}
	return text, nil
}

func (c *Client) completeWithRetry(ctx context.Context, prompt string, temperature float64) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: float32(temperature),
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in completion response")
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"model":             c.model,
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
		}).Debug("LLM request completed")

		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("failed after %d attempts: %w", c.retryAttempts, lastErr)
}

// IsHealthy reports whether the circuit breaker is closed.
func (c *Client) IsHealthy() bool {
	return c.circuitBreaker.State() == gobreaker.StateClosed
}
