package ecfr

import (
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

func TestBackoff(t *testing.T) {
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, w := range want {
		if got := Backoff(i); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i, got, w)
		}
	}
	if got := Backoff(100); got != 30*time.Second {
		t.Errorf("Backoff(100) = %v, want 30s", got)
	}
}

// drive feeds responses to the machine, answering every non-request action
// with its completion event.
func drive(m retryMachine, responses []event) (retryMachine, []action) {
	var actions []action
	m, act := m.transition(event{kind: eventStart})
	for !m.terminal() {
		actions = append(actions, act)
		var ev event
		switch act.kind {
		case actionWait, actionThrottle:
			ev = event{kind: eventWaited}
		case actionSleep:
			ev = event{kind: eventSlept}
		case actionRequest:
			if len(responses) == 0 {
				panic("ran out of responses")
			}
			ev, responses = responses[0], responses[1:]
		}
		m, act = m.transition(ev)
	}
	return m, actions
}

func status(code int) event {
	return event{kind: eventResponse, status: code}
}

func countKind(actions []action, kind actionKind) int {
	n := 0
	for _, a := range actions {
		if a.kind == kind {
			n++
		}
	}
	return n
}

func TestRetryMachine_Success(t *testing.T) {
	m, actions := drive(newRetryMachine("u", 5), []event{status(200)})

	if m.state != stateDone {
		t.Fatalf("state = %s, want done", m.state)
	}
	if len(actions) != 2 || actions[0].kind != actionWait || actions[1].kind != actionRequest {
		t.Errorf("actions = %+v, want wait, request", actions)
	}
}

func TestRetryMachine_NotFoundIsTerminal(t *testing.T) {
	m, actions := drive(newRetryMachine("u", 5), []event{status(404)})

	if m.state != stateFailed {
		t.Fatalf("state = %s, want failed", m.state)
	}
	if !errors.Is(m.err, domain.ErrNotFound) {
		t.Errorf("err = %v, want not found", m.err)
	}
	if countKind(actions, actionRequest) != 1 {
		t.Errorf("requests = %d, want 1", countKind(actions, actionRequest))
	}
}

func TestRetryMachine_ThrottleDoesNotConsumeRetries(t *testing.T) {
	var responses []event
	for i := 0; i < 20; i++ {
		responses = append(responses, status(429))
	}
	responses = append(responses, status(200))

	m, actions := drive(newRetryMachine("u", 5), responses)

	if m.state != stateDone {
		t.Fatalf("state = %s, want done (err=%v)", m.state, m.err)
	}
	if m.retries != 0 {
		t.Errorf("retries = %d, want 0", m.retries)
	}
	if countKind(actions, actionThrottle) != 20 {
		t.Errorf("throttles = %d, want 20", countKind(actions, actionThrottle))
	}
	if countKind(actions, actionSleep) != 0 {
		t.Errorf("sleeps = %d, want 0", countKind(actions, actionSleep))
	}
}

func TestRetryMachine_ServiceUnavailableSleepSchedule(t *testing.T) {
	for r := 0; r < 5; r++ {
		var responses []event
		for i := 0; i < r; i++ {
			responses = append(responses, status(503))
		}
		responses = append(responses, status(200))

		m, actions := drive(newRetryMachine("u", 5), responses)
		if m.state != stateDone {
			t.Fatalf("r=%d: state = %s, want done (err=%v)", r, m.state, m.err)
		}

		var got, want time.Duration
		for _, a := range actions {
			if a.kind == actionSleep {
				got += a.delay
			}
		}
		for i := 0; i < r; i++ {
			want += Backoff(i)
		}
		if got != want {
			t.Errorf("r=%d: total sleep = %v, want %v", r, got, want)
		}
	}
}

func TestRetryMachine_ServiceUnavailableExhausts(t *testing.T) {
	var responses []event
	for i := 0; i < 5; i++ {
		responses = append(responses, status(503))
	}

	m, actions := drive(newRetryMachine("u", 5), responses)

	if m.state != stateFailed {
		t.Fatalf("state = %s, want failed", m.state)
	}
	if domain.FetchErrorKindOf(m.err) != domain.FetchExhausted {
		t.Errorf("kind = %s, want exhausted", domain.FetchErrorKindOf(m.err))
	}
	if countKind(actions, actionRequest) != 5 {
		t.Errorf("requests = %d, want 5", countKind(actions, actionRequest))
	}
}

func TestRetryMachine_GenericErrorRetriesThenSurfacesLast(t *testing.T) {
	responses := []event{status(500), status(502), status(500), status(500), status(418)}

	m, actions := drive(newRetryMachine("u", 5), responses)

	if m.state != stateFailed {
		t.Fatalf("state = %s, want failed", m.state)
	}
	var fe *domain.FetchError
	if !errors.As(m.err, &fe) || fe.Kind != domain.FetchExhausted {
		t.Fatalf("err = %v, want exhausted fetch error", m.err)
	}
	if fe.Status != 418 {
		t.Errorf("status = %d, want last status 418", fe.Status)
	}
	if countKind(actions, actionSleep) != 4 {
		t.Errorf("sleeps = %d, want 4", countKind(actions, actionSleep))
	}
}

func TestRetryMachine_NetworkErrorRecovers(t *testing.T) {
	responses := []event{
		{kind: eventResponse, err: errors.New("connection reset")},
		status(200),
	}

	m, _ := drive(newRetryMachine("u", 5), responses)
	if m.state != stateDone {
		t.Fatalf("state = %s, want done", m.state)
	}
	if m.retries != 1 {
		t.Errorf("retries = %d, want 1", m.retries)
	}
}

func TestRetryMachine_NonRetryableErrorPropagates(t *testing.T) {
	reqErr := &domain.FetchError{Kind: domain.FetchRequest, URL: "u"}
	m, _ := drive(newRetryMachine("u", 5), []event{{kind: eventResponse, err: reqErr}})

	if m.state != stateFailed || m.err != reqErr {
		t.Fatalf("state = %s err = %v, want failed with request error", m.state, m.err)
	}
}

func TestRetryMachine_MalformedIsTerminal(t *testing.T) {
	m, actions := drive(newRetryMachine("u", 5), []event{
		{kind: eventResponse, status: 200, err: errors.New("bad json"), malformed: true},
	})

	if domain.FetchErrorKindOf(m.err) != domain.FetchMalformed {
		t.Errorf("kind = %s, want malformed", domain.FetchErrorKindOf(m.err))
	}
	if countKind(actions, actionRequest) != 1 {
		t.Errorf("requests = %d, want 1", countKind(actions, actionRequest))
	}
}

func TestRetryMachine_UnexpectedEventFails(t *testing.T) {
	m := newRetryMachine("u", 5)
	m, _ = m.transition(event{kind: eventSlept})
	if m.state != stateFailed || m.err == nil {
		t.Fatalf("state = %s, want failed", m.state)
	}
}
