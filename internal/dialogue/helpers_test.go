package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/susu3304/loanbot/internal/fallback"
	"github.com/susu3304/loanbot/internal/feedback"
	"github.com/susu3304/loanbot/internal/ledger"
	"github.com/susu3304/loanbot/internal/rules"
)

type stubFallback struct {
	mu         sync.Mutex
	result     fallback.Result
	chatReply  string
	chatErr    error
	parseCalls int
	chatCalls  int
}

func (s *stubFallback) Parse(_ context.Context, _ string) fallback.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parseCalls++
	return s.result
}

func (s *stubFallback) Chat(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatCalls++
	return s.chatReply, s.chatErr
}

func (s *stubFallback) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parseCalls
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	engine *Engine
	ledger *ledger.Memory
	fb     *stubFallback
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:   t,
		ctx: context.Background(),
		now: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		fb: &stubFallback{
			result:  fallback.Result{Status: fallback.StatusUnavailable, Err: errors.New("offline")},
			chatErr: errors.New("offline"),
		},
	}
	clock := func() time.Time { return h.now }
	h.ledger = ledger.NewMemory(ledger.WithClock(clock))
	h.engine = NewEngine(h.ledger, rules.New(), h.fb, WithClock(clock), WithFeedback(h.ledger))
	return h
}

func (h *harness) say(text string) string {
	return h.engine.Handle(h.ctx, "u1", text)
}

func (h *harness) state() State {
	return h.engine.sessions.Get("u1").State
}

func (h *harness) seedLoan(entity string, amount float64) ledger.Loan {
	h.t.Helper()
	loan, err := h.ledger.CreateLoan(h.ctx, "u1", entity, amount)
	require.NoError(h.t, err)
	return *loan
}

func (h *harness) activeLoans() []ledger.Loan {
	h.t.Helper()
	loans, err := h.ledger.ListActiveLoans(h.ctx, "u1")
	require.NoError(h.t, err)
	return loans
}

// loan finds an active loan by id.
func (h *harness) loan(id int64) (ledger.Loan, bool) {
	h.t.Helper()
	for _, l := range h.activeLoans() {
		if l.ID == id {
			return l, true
		}
	}
	return ledger.Loan{}, false
}

func (h *harness) repayments() []ledger.Loan {
	h.t.Helper()
	notes, err := h.ledger.Repayments(h.ctx, "u1")
	require.NoError(h.t, err)
	return notes
}

// feedback returns the recorded entries oldest first.
func (h *harness) feedback() []feedback.Entry {
	h.t.Helper()
	entries, err := h.ledger.ListFeedback(h.ctx, "u1")
	require.NoError(h.t, err)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}
