package ecfr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

const (
	// DefaultMaxRetries is the retry budget for every remote call.
	DefaultMaxRetries = 5

	backoffUnit = time.Second
	backoffCap  = 30 * time.Second
)

// Backoff returns min(1s * 2^retry, 30s).
func Backoff(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	if retry >= 5 {
		return backoffCap
	}
	d := backoffUnit << uint(retry)
	if d > backoffCap {
		return backoffCap
	}
	return d
}

type retryState int

const (
	stateIdle retryState = iota
	stateWaiting
	stateRequesting
	stateBackingOff
	stateDone
	stateFailed
)

func (s retryState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateWaiting:
		return "waiting"
	case stateRequesting:
		return "requesting"
	case stateBackingOff:
		return "backing_off"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

type actionKind int

const (
	actionNone actionKind = iota
	// actionWait asks the rate limiter for the next slot
	actionWait
	// actionRequest issues the HTTP request
	actionRequest
	// actionThrottle widens the limiter delay, then waits
	actionThrottle
	// actionSleep sleeps for delay
	actionSleep
)

type action struct {
	kind  actionKind
	delay time.Duration
}

type eventKind int

const (
	eventStart eventKind = iota
	eventWaited
	eventResponse
	eventSlept
)

// event is fed into the machine by the runner. For eventResponse, status is
// the HTTP status (0 when the request itself failed) and err carries a
// transport or decode failure.
type event struct {
	kind      eventKind
	status    int
	err       error
	malformed bool
}

// retryMachine is the retry policy as data. transition is pure: the runner
// performs the returned action and feeds back the matching event.
type retryMachine struct {
	url        string
	state      retryState
	retries    int
	maxRetries int
	lastErr    error
	err        error
}

func newRetryMachine(url string, maxRetries int) retryMachine {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return retryMachine{url: url, state: stateIdle, maxRetries: maxRetries}
}

func (m retryMachine) terminal() bool {
	return m.state == stateDone || m.state == stateFailed
}

func (m retryMachine) fail(err error) (retryMachine, action) {
	m.state = stateFailed
	m.err = err
	return m, action{}
}

func (m retryMachine) transition(ev event) (retryMachine, action) {
	switch m.state {
	case stateIdle:
		if ev.kind == eventStart {
			m.state = stateWaiting
			return m, action{kind: actionWait}
		}

	case stateWaiting:
		if ev.kind == eventWaited {
			m.state = stateRequesting
			return m, action{kind: actionRequest}
		}

	case stateRequesting:
		if ev.kind == eventResponse {
			return m.onResponse(ev)
		}

	case stateBackingOff:
		if ev.kind == eventSlept {
			m.retries++
			if m.retries >= m.maxRetries {
				return m.fail(m.exhausted())
			}
			m.state = stateWaiting
			return m, action{kind: actionWait}
		}
	}

	return m.fail(fmt.Errorf("retry: unexpected event %d in state %s", ev.kind, m.state))
}

func (m retryMachine) onResponse(ev event) (retryMachine, action) {
	switch {
	case ev.malformed:
		return m.fail(&domain.FetchError{Kind: domain.FetchMalformed, URL: m.url, Status: ev.status, Err: ev.err})

	case ev.err == nil && ev.status >= 200 && ev.status < 300:
		m.state = stateDone
		return m, action{}

	case ev.status == http.StatusNotFound:
		return m.fail(&domain.FetchError{Kind: domain.FetchNotFound, URL: m.url, Status: ev.status})

	case ev.status == http.StatusTooManyRequests:
		// Throttling never consumes the retry budget.
		m.lastErr = &domain.FetchError{Kind: domain.FetchRateLimited, URL: m.url, Status: ev.status}
		m.state = stateWaiting
		return m, action{kind: actionThrottle}

	case ev.status == http.StatusServiceUnavailable:
		m.lastErr = &domain.FetchError{Kind: domain.FetchTransient, URL: m.url, Status: ev.status}
		m.state = stateBackingOff
		return m, action{kind: actionSleep, delay: Backoff(m.retries)}
	}

	var err error
	if ev.err != nil {
		err = ev.err
		var fe *domain.FetchError
		if errors.As(err, &fe) && !fe.Retryable() {
			return m.fail(err)
		}
		if fe == nil {
			err = &domain.FetchError{Kind: domain.FetchTransient, URL: m.url, Status: ev.status, Err: ev.err}
		}
	} else {
		err = &domain.FetchError{Kind: domain.FetchTransient, URL: m.url, Status: ev.status}
	}
	m.lastErr = err

	if m.retries >= m.maxRetries-1 {
		return m.fail(m.exhausted())
	}
	m.state = stateBackingOff
	return m, action{kind: actionSleep, delay: Backoff(m.retries)}
}

func (m retryMachine) exhausted() error {
	fe := &domain.FetchError{Kind: domain.FetchExhausted, URL: m.url}
	if m.lastErr == nil {
		fe.Err = errors.New("max retries exceeded")
		return fe
	}
	var last *domain.FetchError
	if errors.As(m.lastErr, &last) {
		fe.Status = last.Status
	}
	fe.Err = fmt.Errorf("max retries exceeded: %w", m.lastErr)
	return fe
}
