package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	userAgent       = "Augur/1.0 (Odds Board)"
	defaultTimeout  = 10 * time.Second
	defaultAttempts = 2
	retryDelay      = 1 * time.Second
)

// Config controls the upstream fetch
type Config struct {
	URL        string
	APIKey     string
	Timeout    time.Duration // per attempt
	Attempts   int           // total attempts, including the first
	RetryDelay time.Duration // base for exponential backoff
}

// FetchStats describes the most recent fetch
type FetchStats struct {
	Attempts    int       `json:"attempts"`
	LastStatus  int       `json:"last_status"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
	Bytes       int       `json:"bytes"`
}

// Client fetches raw payloads from the upstream odds feed
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Entry
	stats      FetchStats
	mu         sync.RWMutex
}

// Ensure Client implements FeedSource
var _ contracts.FeedSource = (*Client)(nil)

// NewClient creates a feed client
func NewClient(cfg Config, logger *logrus.Entry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = retryDelay
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "odds-feed",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("feed circuit breaker state changed")
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		breaker:    breaker,
		logger:     logger,
	}
}

// FetchPayload retrieves the nested book -> sport -> date payload
func (c *Client) FetchPayload(ctx context.Context) (*models.Payload, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var payload models.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrInvalidPayload, err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return &payload, nil
}

// FetchTabular retrieves the flat positional export
func (c *Client) FetchTabular(ctx context.Context) (*models.TabularPayload, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var payload models.TabularPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrInvalidPayload, err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return &payload, nil
}

// Stats returns a copy of the most recent fetch stats
func (c *Client) Stats() FetchStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// fetch runs the retrying request behind the circuit breaker
func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequestWithRetry(ctx)
	})

	c.mu.Lock()
	if err != nil {
		c.stats.LastError = err.Error()
	} else {
		c.stats.LastError = ""
		c.stats.LastSuccess = time.Now().UTC()
	}
	c.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUpstreamFetch, err)
	}

	body := result.([]byte)
	c.mu.Lock()
	c.stats.Bytes = len(body)
	c.mu.Unlock()

	return body, nil
}

// doRequestWithRetry performs the HTTP request with bounded retries
func (c *Client) doRequestWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := c.cfg.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		c.mu.Lock()
		c.stats.Attempts = attempt + 1
		c.mu.Unlock()

		body, err := c.doRequest(ctx)
		if err == nil {
			return body, nil
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"of":      c.cfg.Attempts,
		}).WithError(err).Warn("feed request failed")

		// Don't retry on client errors (4xx except 429)
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests {
				return nil, err
			}
		}

		// the caller gave up; retrying is pointless
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request under the per-attempt timeout
func (c *Client) doRequest(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.mu.Lock()
	c.stats.LastStatus = resp.StatusCode
	c.mu.Unlock()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
