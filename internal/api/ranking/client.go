package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Failure modes callers dispatch on with errors.Is.
var (
	// ErrThrottled is retryable: the upstream is rate limiting.
	ErrThrottled = errors.New("ranking engine throttled")
	// ErrQuotaExceeded is not retryable until the account quota changes.
	ErrQuotaExceeded = errors.New("ranking engine quota exceeded")
	// ErrParse means the engine returned something that is not the agreed
	// JSON contract.
	ErrParse = errors.New("ranking response parse error")
)

// MaxBatchSize is the hard cap on candidates per engine call.
const MaxBatchSize = 50

// Client talks to an OpenAI-compatible chat-completions gateway.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	topN        int
	httpClient  *http.Client
	logger      *zap.Logger
}

func New(baseURL, apiKey, model string, temperature float64, topN int, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		topN:        topN,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// chatCompletion posts one request and returns the assistant message
// content. Upstream throttling and quota exhaustion are surfaced as
// distinct errors so the sourcing handler can map them to different codes.
func (c *Client) chatCompletion(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ranking request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("ranking engine responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to decode

	case resp.StatusCode == http.StatusTooManyRequests:
		if isQuotaError(body) {
			return "", ErrQuotaExceeded
		}
		c.logger.Warn("ranking engine rate limit hit")
		return "", ErrThrottled

	case resp.StatusCode == http.StatusPaymentRequired:
		return "", ErrQuotaExceeded

	default:
		c.logger.Error("ranking engine error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrParse, err)
	}

	if parsed.Error != nil {
		if parsed.Error.Code == "insufficient_quota" {
			return "", ErrQuotaExceeded
		}
		return "", fmt.Errorf("ranking engine error: %s", parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrParse)
	}

	return parsed.Choices[0].Message.Content, nil
}

// some gateways report quota exhaustion with a 429 and a distinct code in
// the body
func isQuotaError(body []byte) bool {
	var parsed struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}
	return parsed.Error.Code == "insufficient_quota" || parsed.Error.Type == "insufficient_quota"
}
