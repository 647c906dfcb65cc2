package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/nitrogen-catchment/internal/domain"
	"github.com/couchcryptid/nitrogen-catchment/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Options configures the Overpass client.
type Options struct {
	Endpoints   []string
	Timeout     time.Duration // per request, also sent as the server-side query timeout
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Client implements domain.ParcelSource against one or more Overpass API
// interpreters, rotating endpoints between attempts.
type Client struct {
	endpoints   []string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	clock       clockwork.Clock
	jitter      func(time.Duration) time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewClient creates an Overpass client. Backoff sleeps run on clock.
func NewClient(opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		endpoints: opts.Endpoints,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		timeout:     opts.Timeout,
		maxAttempts: max(opts.MaxAttempts, 1),
		baseDelay:   opts.BaseDelay,
		maxDelay:    opts.MaxDelay,
		clock:       clock,
		jitter:      randomJitter,
		logger:      logger,
		metrics:     metrics,
	}
}

// FetchParcels queries land parcels of q.LandUse inside the catchment's
// bounding box. An empty catchment or tag set returns no parcels without a
// network call. After every attempt fails the error wraps
// domain.ErrGeodataUnavailable; cancellation returns ctx.Err().
func (c *Client) FetchParcels(ctx context.Context, q domain.ParcelQuery) ([]domain.LandParcel, error) {
	box, ok := q.Area.Bounds()
	if !ok || len(q.LandUse) == 0 {
		return nil, nil
	}
	if len(c.endpoints) == 0 {
		return nil, fmt.Errorf("%w: no endpoints configured", domain.ErrGeodataUnavailable)
	}
	body := buildQuery(q.LandUse, box, c.timeout)

	var lastErr error
	backoff := c.baseDelay
	for attempt := range c.maxAttempts {
		if attempt > 0 {
			if !c.sleep(ctx, backoff+c.jitter(backoff)) {
				return nil, ctx.Err()
			}
			backoff = nextBackoff(backoff, c.maxDelay)
		}

		endpoint := c.endpoints[attempt%len(c.endpoints)]
		parcels, err := c.doRequest(ctx, endpoint, body)
		if err == nil {
			return parcels, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		c.logger.Warn("geodata request failed",
			"endpoint", endpoint,
			"attempt", attempt+1,
			"max_attempts", c.maxAttempts,
			"error", err,
		)
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", domain.ErrGeodataUnavailable, c.maxAttempts, lastErr)
}

func (c *Client) doRequest(ctx context.Context, endpoint, query string) ([]domain.LandParcel, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeodataDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeodataRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("geodata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.GeodataRequests.WithLabelValues(endpoint, "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var overpassResp response
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		c.metrics.GeodataRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if strings.Contains(overpassResp.Remark, "runtime error") {
		c.metrics.GeodataRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, errors.New("overpass runtime error: " + overpassResp.Remark)
	}

	c.metrics.GeodataRequests.WithLabelValues(endpoint, "success").Inc()
	return toParcels(overpassResp.Elements), nil
}

// sleep waits for d on the client clock. It returns false if ctx ends first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(d):
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

// randomJitter returns a random duration in [0, d/2).
func randomJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return 0
	}
	return rand.N(d / 2)
}
