package ecfr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// newTestFetcher returns a fetcher with a zero-delay limiter and a recording
// sleep.
func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *httptest.Server, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	f := NewFetcher(FetcherConfig{
		HTTPClient: server.Client(),
		Limiter:    NewRateLimiter(0, 0),
		MaxRetries: 5,
	})
	sleeps := &[]time.Duration{}
	f.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return f, server, sleeps
}

func sum(ds []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total
}

func TestFetcher_GetJSON_Success(t *testing.T) {
	f, server, sleeps := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", got, DefaultUserAgent)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	})

	var out struct{ Name string }
	if err := f.GetJSON(context.Background(), "test", server.URL, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Name != "ok" {
		t.Errorf("Name = %q, want ok", out.Name)
	}
	if len(*sleeps) != 0 {
		t.Errorf("sleeps = %v, want none", *sleeps)
	}
}

func TestFetcher_BestEffortJSONWithoutContentType(t *testing.T) {
	f, server, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"name":"plain"}`))
	})

	var out struct{ Name string }
	if err := f.GetJSON(context.Background(), "test", server.URL, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Name != "plain" {
		t.Errorf("Name = %q, want plain", out.Name)
	}
}

func TestFetcher_NotFoundNeverRetries(t *testing.T) {
	var calls int32
	f, server, sleeps := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	err := f.GetJSON(context.Background(), "test", server.URL, &struct{}{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(*sleeps) != 0 {
		t.Errorf("sleeps = %v, want none", *sleeps)
	}
}

func TestFetcher_ServiceUnavailableThenSuccess(t *testing.T) {
	for r := 1; r < 5; r++ {
		var calls int32
		failures := int32(r)
		f, server, sleeps := newTestFetcher(t, func(w http.ResponseWriter, req *http.Request) {
			if atomic.AddInt32(&calls, 1) <= failures {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		})

		if err := f.GetJSON(context.Background(), "test", server.URL, &struct{}{}); err != nil {
			t.Fatalf("r=%d: GetJSON() error = %v", r, err)
		}

		var want time.Duration
		for i := 0; i < r; i++ {
			if d := time.Duration(1000*(1<<i)) * time.Millisecond; d < 30*time.Second {
				want += d
			} else {
				want += 30 * time.Second
			}
		}
		if got := sum(*sleeps); got != want {
			t.Errorf("r=%d: total sleep = %v, want %v", r, got, want)
		}
		if int(calls) != r+1 {
			t.Errorf("r=%d: calls = %d, want %d", r, calls, r+1)
		}
	}
}

func TestFetcher_ThrottledRequestsDoNotConsumeRetries(t *testing.T) {
	var calls int32
	f, server, sleeps := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 8 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if err := f.GetJSON(context.Background(), "test", server.URL, &struct{}{}); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if calls != 9 {
		t.Errorf("calls = %d, want 9", calls)
	}
	if len(*sleeps) != 0 {
		t.Errorf("sleeps = %v, want none", *sleeps)
	}
}

func TestFetcher_ExhaustsOnPersistentServerError(t *testing.T) {
	var calls int32
	f, server, sleeps := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := f.GetJSON(context.Background(), "test", server.URL, &struct{}{})
	if domain.FetchErrorKindOf(err) != domain.FetchExhausted {
		t.Fatalf("err = %v, want exhausted", err)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	if len(*sleeps) != 4 {
		t.Errorf("sleeps = %v, want 4 entries", *sleeps)
	}
}

func TestFetcher_MalformedBodyIsTerminal(t *testing.T) {
	var calls int32
	f, server, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})

	err := f.GetJSON(context.Background(), "test", server.URL, &struct{}{})
	if domain.FetchErrorKindOf(err) != domain.FetchMalformed {
		t.Fatalf("err = %v, want malformed", err)
	}
	if domain.IsRetryable(err) {
		t.Error("malformed error must not be retryable")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestFetcher_GetRawSkipsDecoding(t *testing.T) {
	f, server, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<ECFR/>`))
	})

	body, err := f.GetRaw(context.Background(), "test", server.URL)
	if err != nil {
		t.Fatalf("GetRaw() error = %v", err)
	}
	if string(body) != `<ECFR/>` {
		t.Errorf("body = %q", body)
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	f, server, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.GetJSON(ctx, "test", server.URL, &struct{}{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
