package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/resilience"
)

// Config holds the scoring API settings.
type Config struct {
	APIURL     string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client calls the Groq chat-completions API to produce an ATS
// compatibility score for extracted resume text. The external call is
// guarded by the same retry/breaker pattern as the database: transport
// and server errors are retried by the HTTP client and counted by the
// breaker, and while the breaker is open no request is attempted.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	cfg     Config
	logger  *zap.Logger
}

// NewClient creates a scoring client with retrying transport.
func NewClient(cfg Config, breaker *resilience.Breaker, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(30*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetTransport(retryClient.HTTPClient.Transport)

	return &Client{
		resty:   restyClient,
		breaker: breaker,
		cfg:     cfg,
		logger:  logger,
	}
}

// chatResponse mirrors the relevant part of the chat-completions payload.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Check scores the given resume text. Returns ErrCircuitOpen without
// attempting a request while the breaker is open.
func (c *Client) Check(ctx context.Context, text string) (*Score, error) {
	if c.breaker.IsOpen() {
		return nil, fmt.Errorf("ats scoring: %w", resilience.ErrCircuitOpen)
	}

	var result chatResponse
	resp, err := c.resty.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetBody(newChatRequest(c.cfg.Model, text)).
		SetResult(&result).
		Post(c.cfg.APIURL)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, resilience.MarkTransient(fmt.Errorf("request ats score: %w", err))
	}

	if resp.IsError() {
		if resp.StatusCode() >= 500 {
			c.breaker.RecordFailure()
			return nil, resilience.MarkTransient(
				fmt.Errorf("scoring API returned %s", resp.Status()))
		}
		return nil, fmt.Errorf("scoring API returned %s", resp.Status())
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("invalid API response format: no choices returned")
	}

	score, err := parseScore(result.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.breaker.RecordSuccess()
	c.logger.Debug("resume scored",
		zap.Int("ats_score", score.ATSScore),
		zap.String("model", c.cfg.Model),
	)
	return score, nil
}

// Breaker returns the breaker guarding the scoring API.
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}
