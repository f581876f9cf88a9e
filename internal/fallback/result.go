package fallback

import (
	"context"
	"errors"

	"github.com/susu3304/loanbot/internal/intent"
)

// Status is the outcome of a fallback parse.
type Status int

const (
	StatusOK Status = iota
	StatusTimedOut
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "unavailable"
	}
}

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("fallback parser disabled")

// Result carries an intent only when Status is StatusOK. Err explains the
// other two outcomes.
type Result struct {
	Status Status
	Intent intent.Intent
	Err    error
}

func ok(in intent.Intent) Result {
	return Result{Status: StatusOK, Intent: in}
}

// Disabled stands in when no model endpoint is configured.
type Disabled struct{}

func (Disabled) Parse(_ context.Context, _ string) Result {
	return Result{Status: StatusUnavailable, Err: ErrDisabled}
}

func (Disabled) Chat(_ context.Context, _ string) (string, error) {
	return "", ErrDisabled
}
