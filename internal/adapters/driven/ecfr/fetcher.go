package ecfr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// DefaultUserAgent identifies this client to the remote API.
const DefaultUserAgent = "cfr-ingest/1.0 (+https://github.com/custodia-labs/cfr-ingest)"

// maxBodySize bounds a single response body (full-title XML can be large).
const maxBodySize = 512 << 20

// Fetcher issues GET requests through the shared rate limiter and the retry
// machine. It is the only path to the network for the client.
type Fetcher struct {
	httpClient *http.Client
	limiter    *RateLimiter
	maxRetries int
	userAgent  string
	metrics    driven.IngestMetrics
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// FetcherConfig holds configuration for a Fetcher.
type FetcherConfig struct {
	HTTPClient *http.Client
	Limiter    *RateLimiter
	MaxRetries int
	UserAgent  string
	Metrics    driven.IngestMetrics
	Logger     *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(time.Second, time.Minute)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Metrics == nil {
		cfg.Metrics = driven.NopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Fetcher{
		httpClient: cfg.HTTPClient,
		limiter:    cfg.Limiter,
		maxRetries: cfg.MaxRetries,
		userAgent:  cfg.UserAgent,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		sleep:      sleepContext,
	}
}

// GetJSON fetches url and decodes the body into v. A body that does not
// decode is a terminal Malformed error.
func (f *Fetcher) GetJSON(ctx context.Context, endpoint, url string, v any) error {
	_, err := f.do(ctx, endpoint, url, func(body []byte) error {
		return json.Unmarshal(body, v)
	})
	return err
}

// GetRaw fetches url and returns the body unparsed.
func (f *Fetcher) GetRaw(ctx context.Context, endpoint, url string) ([]byte, error) {
	return f.do(ctx, endpoint, url, nil)
}

func (f *Fetcher) do(ctx context.Context, endpoint, url string, decode func([]byte) error) ([]byte, error) {
	m := newRetryMachine(url, f.maxRetries)
	m, act := m.transition(event{kind: eventStart})

	var body []byte
	for !m.terminal() {
		var ev event
		switch act.kind {
		case actionWait:
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			ev = event{kind: eventWaited}

		case actionThrottle:
			f.limiter.HandleError()
			f.metrics.ObserveBackoff("throttled", f.limiter.CurrentDelay())
			f.logger.Warn("remote throttled request", "url", url, "delay", f.limiter.CurrentDelay())
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			ev = event{kind: eventWaited}

		case actionSleep:
			f.metrics.ObserveBackoff("retry", act.delay)
			f.logger.Debug("backing off", "url", url, "delay", act.delay, "retry", m.retries)
			if err := f.sleep(ctx, act.delay); err != nil {
				return nil, err
			}
			ev = event{kind: eventSlept}

		case actionRequest:
			var err error
			body, ev, err = f.request(ctx, endpoint, url, decode)
			if err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("retry: no action in state %s", m.state)
		}
		m, act = m.transition(ev)
	}

	if m.state == stateFailed {
		return nil, m.err
	}
	return body, nil
}

// request performs one HTTP round trip and classifies it as an event. The
// returned error is only set for context cancellation.
func (f *Fetcher) request(ctx context.Context, endpoint, url string, decode func([]byte) error) ([]byte, event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, event{kind: eventResponse, err: &domain.FetchError{Kind: domain.FetchRequest, URL: url, Err: err}}, nil
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, event{}, ctx.Err()
		}
		f.metrics.ObserveRequest(endpoint, 0, time.Since(start))
		return nil, event{kind: eventResponse, err: err}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	f.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, event{kind: eventResponse, status: resp.StatusCode, err: fmt.Errorf("read body: %w", err)}, nil
	}

	ev := event{kind: eventResponse, status: resp.StatusCode}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && decode != nil {
		if err := decode(body); err != nil {
			ev.err = fmt.Errorf("decode %s: %w", resp.Header.Get("Content-Type"), err)
			ev.malformed = true
		}
	}
	return body, ev, nil
}
