package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"
)

// Waiter blocks until a request may be sent
type Waiter interface {
	Wait(ctx context.Context) error
}

// ClientConfig controls the retrying HTTP client
type ClientConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BackoffBase is multiplied by 2^attempt between attempts.
	BackoffBase time.Duration
	// Timeout bounds a single HTTP round trip. Zero means no bound beyond
	// the request context.
	Timeout   time.Duration
	UserAgent string
	// Limiter, when set, is waited on before every attempt.
	Limiter Waiter
}

// DefaultClientConfig returns two retries with 500ms exponential backoff
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxRetries:  2,
		BackoffBase: 500 * time.Millisecond,
		UserAgent:   "Mozilla/5.0 (compatible; folio/1.0)",
	}
}

// Client performs GET requests with retry and exponential backoff
type Client struct {
	http   *resty.Client
	cfg    ClientConfig
	logger *zap.Logger
}

// NewClient creates a client. Retries are handled here, not by resty, so
// that the status policy is applied exactly once per attempt.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}

	h := resty.New().SetRetryCount(0)
	if cfg.Timeout > 0 {
		h.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		h.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{http: h, cfg: cfg, logger: logger}
}

// Backoff returns the wait before the retry that follows attempt (0-based)
func Backoff(attempt int, base time.Duration) time.Duration {
	return (1 << attempt) * base
}

// Get fetches url and returns the body of the first 2xx response. At most
// MaxRetries+1 requests are sent.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if c.cfg.Limiter != nil {
			if err := c.cfg.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := c.do(ctx, url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) {
			return nil, err
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		delay := Backoff(attempt, c.cfg.BackoffBase)
		c.logger.Debug("retrying request",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode(), URL: url}
	}
	return resp.Bytes(), nil
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}
