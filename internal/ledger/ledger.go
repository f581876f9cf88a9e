// Package ledger defines the loan and reminder store the dialogue engine
// mutates, and an in-memory implementation of it.
package ledger

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

type Kind string

const (
	KindLoan      Kind = "loan"
	KindRepayment Kind = "repayment"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
)

const DefaultCurrency = "USD"

var ErrLoanNotFound = errors.New("loan not found")

// Loan is a ledger fact. Repayments share the shape with Kind set to
// KindRepayment.
type Loan struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	Kind        Kind       `json:"kind"`
	Entity      string     `json:"entity"`
	Amount      float64    `json:"amount"`
	Remaining   float64    `json:"remaining_amount"`
	Currency    string     `json:"currency"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

type Reminder struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Message   string         `json:"message"`
	RemindAt  time.Time      `json:"remind_at"`
	Status    ReminderStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Ledger is the storage the executor and reminder surfacing need.
//
// FindActiveLoanByEntity returns nil, nil when no loan matches. The match is
// case-insensitive and picks the oldest active loan. TakeDueReminders flips
// every pending reminder with RemindAt <= now to sent and returns them, as one
// atomic step.
type Ledger interface {
	CreateLoan(ctx context.Context, userID, entity string, amount float64) (*Loan, error)
	CloseLoan(ctx context.Context, loanID int64) error
	UpdateRemaining(ctx context.Context, loanID int64, remaining float64) error
	RecordRepayment(ctx context.Context, userID, entity string, amount float64, note string) error
	FindActiveLoanByEntity(ctx context.Context, userID, entity string) (*Loan, error)
	ListActiveLoans(ctx context.Context, userID string) ([]Loan, error)
	CreateReminder(ctx context.Context, userID, message string, remindAt time.Time) (*Reminder, error)
	TakeDueReminders(ctx context.Context, userID string, now time.Time) ([]Reminder, error)
}

// History reads the repayment notes a ledger keeps next to its loans.
type History interface {
	Repayments(ctx context.Context, userID string) ([]Loan, error)
}
