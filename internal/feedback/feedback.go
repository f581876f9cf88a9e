// Package feedback records how users resolved intents the agent asked them to
// confirm. The entries are training data for the parsers.
package feedback

import (
	"context"
	"time"

	"github.com/susu3304/loanbot/internal/intent"
)

// Rejected is stored as the confirmed tag when the user declines.
const Rejected = "rejected"

type Entry struct {
	UserID     string        `json:"user_id"`
	Text       string        `json:"text"`
	Predicted  intent.Tag    `json:"predicted"`
	Confirmed  string        `json:"confirmed"`
	Confidence float64       `json:"confidence"`
	Source     intent.Source `json:"source"`
	CreatedAt  time.Time     `json:"created_at"`
}

type Recorder interface {
	RecordFeedback(ctx context.Context, e Entry) error
}

// Lister reads back a user's entries, newest first.
type Lister interface {
	ListFeedback(ctx context.Context, userID string) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

func (Nop) RecordFeedback(context.Context, Entry) error { return nil }
