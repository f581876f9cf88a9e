package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/susu3304/loanbot/internal/feedback"
)

// Memory is a Ledger held in process memory. It also keeps feedback entries.
type Memory struct {
	mu        sync.Mutex
	now       func() time.Time
	nextID    int64
	facts     []*Loan
	reminders []*Reminder
	feedback  []feedback.Entry
}

type MemoryOption func(*Memory)

// WithClock sets the time source used for created and closed stamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateLoan(_ context.Context, userID, entity string, amount float64) (*Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan := &Loan{
		ID:        m.id(),
		UserID:    userID,
		Kind:      KindLoan,
		Entity:    entity,
		Amount:    amount,
		Remaining: amount,
		Currency:  DefaultCurrency,
		Status:    StatusActive,
		CreatedAt: m.now(),
	}
	m.facts = append(m.facts, loan)
	out := *loan
	return &out, nil
}

func (m *Memory) find(loanID int64) *Loan {
	for _, f := range m.facts {
		if f.ID == loanID && f.Kind == KindLoan {
			return f
		}
	}
	return nil
}

func (m *Memory) CloseLoan(_ context.Context, loanID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan := m.find(loanID)
	if loan == nil {
		return ErrLoanNotFound
	}
	closed := truncateDay(m.now())
	loan.Status = StatusClosed
	loan.Remaining = 0
	loan.ClosedAt = &closed
	return nil
}

func (m *Memory) UpdateRemaining(_ context.Context, loanID int64, remaining float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan := m.find(loanID)
	if loan == nil {
		return ErrLoanNotFound
	}
	loan.Remaining = remaining
	return nil
}

func (m *Memory) RecordRepayment(_ context.Context, userID, entity string, amount float64, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.facts = append(m.facts, &Loan{
		ID:          m.id(),
		UserID:      userID,
		Kind:        KindRepayment,
		Entity:      entity,
		Amount:      amount,
		Currency:    DefaultCurrency,
		Description: note,
		Status:      StatusClosed,
		CreatedAt:   m.now(),
	})
	return nil
}

func (m *Memory) FindActiveLoanByEntity(_ context.Context, userID, entity string) (*Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// facts are appended in creation order, so the first hit is the oldest
	for _, f := range m.facts {
		if f.UserID == userID && f.Kind == KindLoan && f.Status == StatusActive && strings.EqualFold(f.Entity, entity) {
			out := *f
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListActiveLoans(_ context.Context, userID string) ([]Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Loan
	for _, f := range m.facts {
		if f.UserID == userID && f.Kind == KindLoan && f.Status == StatusActive && f.Remaining > 0 {
			out = append(out, *f)
		}
	}
	return out, nil
}

// Repayments returns the user's repayment notes, oldest first.
func (m *Memory) Repayments(_ context.Context, userID string) ([]Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Loan
	for _, f := range m.facts {
		if f.UserID == userID && f.Kind == KindRepayment {
			out = append(out, *f)
		}
	}
	return out, nil
}

// loan returns a copy of any loan by id, active or closed.
func (m *Memory) loan(loanID int64) (Loan, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l := m.find(loanID); l != nil {
		return *l, true
	}
	return Loan{}, false
}

func (m *Memory) CreateReminder(_ context.Context, userID, message string, remindAt time.Time) (*Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &Reminder{
		ID:        m.id(),
		UserID:    userID,
		Message:   message,
		RemindAt:  remindAt,
		Status:    ReminderPending,
		CreatedAt: m.now(),
	}
	m.reminders = append(m.reminders, r)
	out := *r
	return &out, nil
}

func (m *Memory) TakeDueReminders(_ context.Context, userID string, now time.Time) ([]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []Reminder
	for _, r := range m.reminders {
		if r.UserID == userID && r.Status == ReminderPending && !r.RemindAt.After(now) {
			r.Status = ReminderSent
			due = append(due, *r)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].RemindAt.Before(due[j].RemindAt) })
	return due, nil
}

func (m *Memory) RecordFeedback(_ context.Context, e feedback.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	m.feedback = append(m.feedback, e)
	return nil
}

// ListFeedback returns the user's feedback entries, newest first.
func (m *Memory) ListFeedback(_ context.Context, userID string) ([]feedback.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []feedback.Entry
	for i := len(m.feedback) - 1; i >= 0; i-- {
		if m.feedback[i].UserID == userID {
			out = append(out, m.feedback[i])
		}
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
