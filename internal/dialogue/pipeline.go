package dialogue

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/fallback"
	"github.com/susu3304/loanbot/internal/intent"
)

const (
	// below this the fallback parser is consulted
	fallbackThreshold = 0.6
	// above this (or when confirmation is requested) a parse is financial
	financialThreshold = 0.6
)

// interpret runs the scored pipeline for a free-form IDLE message. Loan
// directions always stop at CONFIRM_ACTION; only read-only intents execute
// straight away.
func (e *Engine) interpret(ctx context.Context, userID, text string) (Session, string) {
	parsed := e.rules.Parse(text)
	if parsed.Confidence < fallbackThreshold {
		parsed = e.consultFallback(ctx, text, parsed)
	}

	e.logger.Debug("parsed",
		zap.String("user", userID),
		zap.String("intent", string(parsed.Tag)),
		zap.String("source", string(parsed.Source)),
		zap.Float64("confidence", parsed.Confidence),
		zap.Float64("completeness", intent.ScoreIntent(parsed)),
		zap.Bool("needs_confirmation", parsed.NeedsConfirmation),
	)

	if parsed.Confidence <= financialThreshold && !parsed.NeedsConfirmation {
		return idleSession(), e.chat(ctx, text, msgGenericHelp)
	}

	switch {
	case parsed.Tag.IsLoanDirection():
		return confirmSession(parsed, text), pendingQuestion(parsed)
	case parsed.NeedsConfirmation:
		return clarifySession(parsed, text), directionQuestion(parsed)
	default:
		return idleSession(), e.exec.Execute(ctx, userID, parsed)
	}
}

// consultFallback returns the fallback parse when it names a loan direction,
// and the rule result otherwise.
func (e *Engine) consultFallback(ctx context.Context, text string, ruled intent.Intent) intent.Intent {
	res := e.fallback.Parse(ctx, text)
	switch res.Status {
	case fallback.StatusOK:
		if res.Intent.Tag.IsLoanDirection() {
			return res.Intent
		}
		e.logger.Debug("fallback parse not actionable", zap.String("intent", string(res.Intent.Tag)))
	case fallback.StatusTimedOut:
		e.logger.Warn("fallback parser timed out", zap.Error(res.Err))
	default:
		if errors.Is(res.Err, fallback.ErrDisabled) {
			break
		}
		e.logger.Warn("fallback parser unavailable", zap.Error(res.Err))
	}
	return ruled
}

// chat asks the fallback for a conversational reply, using def when it
// cannot provide one.
func (e *Engine) chat(ctx context.Context, text, def string) string {
	reply, err := e.fallback.Chat(ctx, text)
	if err != nil || reply == "" {
		e.logger.Debug("chat reply unavailable", zap.Error(err))
		return def
	}
	return reply
}
