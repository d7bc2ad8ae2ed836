// Package insights talks to the AI gateway that writes three-sentence
// commentary for a market. The gateway is optional; every failure path
// yields a deterministic fallback insight built from the splits.
package insights

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

	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const defaultTimeout = 8 * time.Second

// ErrUnparseable is returned when the gateway reply has neither the JSON
// fields nor three text lines
var ErrUnparseable = errors.New("unparseable insight response")

// Config holds configuration for the insight client
type Config struct {
	URL     string        // e.g., "http://localhost:5010/v1/insights"
	APIKey  string        // AI gateway key
	Timeout time.Duration // hard ceiling per request
}

// Client posts insight requests to the AI gateway
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	extractor  PlayExtractor
	logger     *logrus.Entry
}

// NewClient creates a new insight client
func NewClient(cfg Config, logger *logrus.Entry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ai-gateway",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"breaker":    name,
					"from_state": from.String(),
					"to_state":   to.String(),
				}).Warn("circuit breaker state changed")
			},
		}),
		extractor: DefaultExtractor,
		logger:    logger,
	}
}

// WithExtractor overrides the play heuristic
func (c *Client) WithExtractor(e PlayExtractor) *Client {
	c.extractor = e
	return c
}

// IsEnabled returns whether a gateway is configured
func (c *Client) IsEnabled() bool {
	return c.cfg.URL != ""
}

// Analyze requests commentary for one market. On any failure it returns the
// fallback insight together with the error; a timeout wraps ErrInsightTimeout.
func (c *Client) Analyze(ctx context.Context, req models.InsightRequest) (models.Insight, error) {
	if !c.IsEnabled() {
		return Fallback(req), nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	requestID := uuid.NewString()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(reqCtx, requestID, req)
	})

	if err != nil {
		entry := c.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"matchup":    req.Matchup,
			"market":     string(req.Market),
		})

		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			entry.WithField("timeout", c.cfg.Timeout.String()).Warn("insight request timed out, using fallback")
			return Fallback(req), fmt.Errorf("%w after %s", models.ErrInsightTimeout, c.cfg.Timeout)
		}

		entry.WithError(err).Warn("insight request failed, using fallback")
		return Fallback(req), fmt.Errorf("analyze %s: %w", req.Matchup, err)
	}

	insight := result.(models.Insight)
	insight.Play = c.extractor.Extract(strings.Join([]string{insight.BookNeed, insight.SharpSide, insight.PublicSide}, " "))
	return insight, nil
}

func (c *Client) post(ctx context.Context, requestID string, req models.InsightRequest) (models.Insight, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return models.Insight{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return models.Insight{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.Insight{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Insight{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.Insight{}, fmt.Errorf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParseResponse(body)
}

// ParseResponse accepts {bookNeed, sharpSide, publicSide} JSON or three
// free-text lines in that order
func ParseResponse(body []byte) (models.Insight, error) {
	var insight models.Insight
	if err := json.Unmarshal(body, &insight); err == nil {
		if insight.BookNeed != "" && insight.SharpSide != "" && insight.PublicSide != "" {
			insight.Play = ""
			insight.Fallback = false
			return insight, nil
		}
	}

	var lines []string
	for _, line := range strings.Split(string(body), "\n") {
		if line = cleanLine(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 3 {
		return models.Insight{}, fmt.Errorf("%w: %d lines", ErrUnparseable, len(lines))
	}

	return models.Insight{
		BookNeed:   lines[0],
		SharpSide:  lines[1],
		PublicSide: lines[2],
	}, nil
}

var linePrefixes = []string{"book need:", "sharp side:", "public side:"}

// cleanLine strips list markers and the optional field label
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• ")
	if len(line) > 2 && line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		line = line[2:]
	}
	line = strings.TrimSpace(line)

	lower := strings.ToLower(line)
	for _, p := range linePrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(line[len(p):])
		}
	}
	return line
}

// Fallback builds a deterministic insight from the request's splits. The
// public side has the larger ticket share; the sharp side has more money
// than tickets.
func Fallback(req models.InsightRequest) models.Insight {
	labelA, labelB := splitMatchup(req.Matchup)
	ticketsA, ticketsB := req.Tickets.Away, req.Tickets.Home
	moneyA, moneyB := req.Money.Away, req.Money.Home
	if req.Market == models.MarketTotal {
		labelA, labelB = "OVER", "UNDER"
		ticketsA, ticketsB = req.Tickets.Over, req.Tickets.Under
		moneyA, moneyB = req.Money.Over, req.Money.Under
	}

	tA, tB := value(ticketsA), value(ticketsB)
	mA, mB := value(moneyA), value(moneyB)

	public, publicTickets, other := labelA, tA, labelB
	if tB > tA {
		public, publicTickets, other = labelB, tB, labelA
	}

	sharp, sharpMoney, sharpTickets := labelA, mA, tA
	if mB-tB > mA-tA {
		sharp, sharpMoney, sharpTickets = labelB, mB, tB
	}

	return models.Insight{
		BookNeed:   fmt.Sprintf("Book needs %s at %s.", other, req.CurrentLine),
		SharpSide:  fmt.Sprintf("Money leans %s with %s%% of handle on %s%% of tickets.", sharp, formatNumber(sharpMoney), formatNumber(sharpTickets)),
		PublicSide: fmt.Sprintf("Public is on %s with %s%% of tickets.", public, formatNumber(publicTickets)),
		Fallback:   true,
	}
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
