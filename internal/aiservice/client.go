package aiservice

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/patrickmn/go-cache"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

const systemPrompt = "You convert role-based access control administration requests into JSON commands. Reply with a single JSON object and nothing else."

var (
	// ErrUnavailable means the service could not be reached or kept failing after retries.
	ErrUnavailable = errors.ErrServiceUnavailable
	// ErrRequestRejected means the service refused the request with a non-retryable 4xx.
	ErrRequestRejected = errors.NewNetworkError("The command interpretation service rejected the request", errors.ErrCodeUpstreamRejected, http.StatusBadGateway)
)

type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       float64
	RequestTimeout    time.Duration
	MaxRetries        uint64
	RetryBaseDelay    time.Duration
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Observer is told about every completed generation call.
type Observer interface {
	AIRequest(outcome string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) AIRequest(string, time.Duration) {}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	temperature    float64
	requestTimeout time.Duration
	maxRetries     uint64
	retryBaseDelay time.Duration

	httpClient *http.Client
	cache      *cache.Cache
	limiter    *rate.Limiter
	observer   Observer
	logger     *slog.Logger
}

func NewClient(cfg Config, observer Observer, logger *slog.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if observer == nil {
		observer = nopObserver{}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	var responses *cache.Cache
	if cfg.CacheTTL > 0 {
		responses = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		temperature:    cfg.Temperature,
		requestTimeout: cfg.RequestTimeout,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		httpClient:     cfg.HTTPClient,
		cache:          responses,
		limiter:        rate.NewLimiter(limit, burst),
		observer:       observer,
		logger:         logger,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.baseURL != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// statusError is a retryable upstream status.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.status, e.body)
}

// Generate sends prompt and returns the reply text. Network failures, timeouts, 429 and 5xx
// responses are retried with exponential backoff and jitter; other 4xx responses are not.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrUnavailable.WithDetails(map[string]string{"reason": "text generation is not configured"})
	}

	key := c.cacheKey(prompt)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.observer.AIRequest("cache_hit", 0)
			return cached.(string), nil
		}
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", errors.NewInternalError("failed to encode generation request", err)
	}

	start := time.Now()
	attempts := 0
	var content string

	backoff := retry.WithMaxRetries(c.maxRetries, retry.WithJitterPercent(20, retry.NewExponential(c.retryBaseDelay)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		var attemptErr error
		content, attemptErr = c.attempt(ctx, body)
		if attemptErr != nil {
			c.logger.Warn("text generation attempt failed", "attempt", attempts, "error", attemptErr)
		}
		return attemptErr
	})
	duration := time.Since(start)

	if err != nil {
		if stderrors.Is(err, ErrRequestRejected) {
			c.observer.AIRequest("rejected", duration)
			return "", err
		}
		c.observer.AIRequest("unavailable", duration)
		c.logger.Error("text generation unavailable", "attempts", attempts, "error", err)
		if appErr, ok := errors.IsAppError(err); ok {
			return "", appErr
		}
		return "", ErrUnavailable.WithCause(err)
	}

	c.observer.AIRequest("success", duration)
	if c.cache != nil && content != "" {
		c.cache.SetDefault(key, content)
	}
	return content, nil
}

func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewInternalError("failed to create generation request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", retry.RetryableError(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return "", retry.RetryableError(&statusError{status: resp.StatusCode, body: truncate(string(payload), 200)})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", ErrRequestRejected.WithCause(&statusError{status: resp.StatusCode, body: truncate(string(payload), 200)})
	}

	var decoded chatResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", ErrUnavailable.WithCause(fmt.Errorf("decode completion: %w", err))
	}
	if len(decoded.Choices) == 0 {
		return "", nil
	}
	return decoded.Choices[0].Message.Content, nil
}

func (c *Client) cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
