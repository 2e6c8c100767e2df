package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
	"github.com/yanqian/hydro-agent/pkg/metrics"
)

const (
	maxBodyBytes    = 8 << 20
	maxErrorSnippet = 512
)

// KeyPlacement decides where the API key is attached to outbound requests.
type KeyPlacement string

const (
	// KeyInPath inserts the key as the first path segment after the base URL.
	KeyInPath KeyPlacement = "path"
	// KeyInQuery sends the key as a query parameter.
	KeyInQuery KeyPlacement = "query"
)

// BreakerConfig mirrors the gobreaker settings exposed through configuration.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Config drives a single upstream client.
type Config struct {
	Name              string
	BaseURL           string
	APIKey            string
	KeyPlacement      KeyPlacement
	KeyParam          string
	Timeout           time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64
	Burst             int
	Breaker           BreakerConfig
	UserAgent         string
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "upstream"
	}
	if c.KeyPlacement == "" {
		c.KeyPlacement = KeyInPath
	}
	if c.KeyParam == "" {
		c.KeyParam = "serviceKey"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 5
	}
	if c.Breaker.Interval <= 0 {
		c.Breaker.Interval = time.Minute
	}
	if c.Breaker.Timeout <= 0 {
		c.Breaker.Timeout = 30 * time.Second
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	return c
}

// Endpoint identifies one upstream resource. Resource is a bounded label used for metrics.
type Endpoint struct {
	Resource string
	Path     string
	Params   url.Values
}

// Client performs authenticated GETs against a single upstream provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	masker     *Masker
	logger     *slog.Logger
	wait       func(ctx context.Context, d time.Duration) error
}

// NewClient wires a client with its circuit breaker and rate limiter.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	threshold := cfg.Breaker.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Deterministic client-side failures say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || !Retryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream circuit state changed", "component", "infra.upstream", "upstream", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		breaker:    breaker,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		masker:     NewMasker(cfg.APIKey),
		logger:     logger.With("component", "infra.upstream", "upstream", cfg.Name),
		wait:       sleepContext,
	}
}

// Masker exposes the client's credential masker for callers that log upstream data.
func (c *Client) Masker() *Masker {
	return c.masker
}

// Request performs Do with rate limiting, circuit breaking and exponential
// backoff. Only retryable failures are attempted again.
func (c *Client) Request(ctx context.Context, ep Endpoint, format Format) (Document, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return Document{}, apperrors.Wrap(CodeNetwork, "rate limiter wait aborted", err)
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.Do(ctx, ep, format)
		})
		if err == nil {
			doc, ok := result.(Document)
			if !ok {
				return Document{}, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return doc, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequests.WithLabelValues(ep.Resource, CodeCircuitOpen).Inc()
			return Document{}, apperrors.Wrap(CodeCircuitOpen, "upstream circuit breaker open", err)
		}

		lastErr = err
		if !Retryable(err) || attempt == c.cfg.MaxAttempts {
			break
		}

		delay := c.backoff(attempt)
		c.logger.Warn("upstream attempt failed, retrying",
			"resource", ep.Resource,
			"attempt", attempt,
			"delay", delay.String(),
			"error", c.masker.String(err.Error()),
		)
		if waitErr := c.wait(ctx, delay); waitErr != nil {
			return Document{}, lastErr
		}
	}
	return Document{}, lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.InitialBackoff << (attempt - 1)
	if delay <= 0 || delay > c.cfg.MaxBackoff {
		delay = c.cfg.MaxBackoff
	}
	return delay
}

// Do performs a single attempt bounded by the configured timeout.
func (c *Client) Do(ctx context.Context, ep Endpoint, format Format) (Document, error) {
	target, err := c.buildURL(ep)
	if err != nil {
		return Document{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	doc, err := c.fetch(ctx, target, format)
	metrics.UpstreamLatency.WithLabelValues(ep.Resource).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(ep.Resource, outcomeOf(err)).Inc()

	if err != nil {
		c.logger.Debug("upstream request failed", "resource", ep.Resource, "url", c.masker.URL(target), "error", c.masker.String(err.Error()))
		return Document{}, err
	}
	c.logger.Debug("upstream request ok", "resource", ep.Resource, "url", c.masker.URL(target), "format", string(doc.Format))
	return doc, nil
}

func (c *Client) fetch(ctx context.Context, target string, format Format) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Document{}, apperrors.Wrap(CodeNetwork, "build upstream request", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	switch format {
	case FormatXML:
		req.Header.Set("Accept", "application/xml")
	case FormatJSON:
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, c.classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: c.masker.String(strings.TrimSpace(string(snippet)))}
		return Document{}, apperrors.Wrap(CodeStatus, "upstream returned non-success status", statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Document{}, c.classifyTransport(ctx, err)
	}
	return Parse(body, format)
}

// classifyTransport decides the error code from the raw transport error, then
// drops the request URL it carries and masks what remains.
func (c *Client) classifyTransport(ctx context.Context, err error) error {
	code, message := CodeNetwork, "upstream transport failure"
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		code, message = CodeTimeout, "upstream request timed out"
	}

	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		cause = urlErr.Err
	}
	return apperrors.Wrap(code, message, &maskedError{msg: c.masker.String(cause.Error()), err: cause})
}

// maskedError carries a credential-free message for a transport cause.
type maskedError struct {
	msg string
	err error
}

func (e *maskedError) Error() string { return e.msg }

func (e *maskedError) Unwrap() error { return e.err }

func (c *Client) buildURL(ep Endpoint) (string, error) {
	key := strings.TrimSpace(c.cfg.APIKey)
	if key == "" {
		return "", apperrors.Wrap(CodeAuth, "upstream api key is not configured", nil)
	}
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	path := strings.TrimLeft(ep.Path, "/")

	switch c.cfg.KeyPlacement {
	case KeyInQuery:
		target := base
		if path != "" {
			target += "/" + path
		}
		query := ep.Params.Encode()
		// data.go.kr issues keys in pre-encoded form; encoding them again breaks auth.
		keyParam := c.cfg.KeyParam + "=" + key
		if !strings.Contains(key, "%") {
			keyParam = url.Values{c.cfg.KeyParam: {key}}.Encode()
		}
		if query == "" {
			return target + "?" + keyParam, nil
		}
		return target + "?" + keyParam + "&" + query, nil
	default:
		target := base + "/" + url.PathEscape(key)
		if path != "" {
			target += "/" + path
		}
		if query := ep.Params.Encode(); query != "" {
			target += "?" + query
		}
		return target, nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
