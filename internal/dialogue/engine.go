// Package dialogue turns chat messages into ledger actions. Each user has a
// small state machine that decides, turn by turn, whether a message can be
// acted on, needs a clarifying question, needs a yes/no confirmation, or is
// just conversation.
package dialogue

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/susu3304/loanbot/internal/fallback"
	"github.com/susu3304/loanbot/internal/feedback"
	"github.com/susu3304/loanbot/internal/intent"
	"github.com/susu3304/loanbot/internal/ledger"
)

// RuleParser is the synchronous first-pass parser.
type RuleParser interface {
	Parse(text string) intent.Intent
}

// FallbackParser is consulted when the rule parser is unsure. It also writes
// the conversational replies.
type FallbackParser interface {
	Parse(ctx context.Context, text string) fallback.Result
	Chat(ctx context.Context, text string) (string, error)
}

type Engine struct {
	sessions SessionStore
	ledger   ledger.Ledger
	rules    RuleParser
	fallback FallbackParser
	vocab    *Vocabulary
	exec     *Executor
	feedback feedback.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithSessionStore(s SessionStore) Option { return func(e *Engine) { e.sessions = s } }
func WithVocabulary(v *Vocabulary) Option { return func(e *Engine) { e.vocab = v } }
func WithFeedback(r feedback.Recorder) Option { return func(e *Engine) { e.feedback = r } }
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(l ledger.Ledger, rules RuleParser, fb FallbackParser, opts ...Option) *Engine {
	e := &Engine{
		sessions: NewMemoryStore(),
		ledger:   l,
		rules:    rules,
		fallback: fb,
		vocab:    DefaultVocabulary(),
		feedback: feedback.Nop{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fallback == nil {
		e.fallback = fallback.Disabled{}
	}
	e.exec = NewExecutor(l, e.logger)
	return e
}

// Handle processes one message from userID and returns the reply. Turns for
// the same user are serialised; different users run concurrently.
func (e *Engine) Handle(ctx context.Context, userID, text string) string {
	unlock := e.sessions.Lock(userID)
	defer unlock()

	prefix := e.dueReminders(ctx, userID)

	current := e.sessions.Get(userID)
	next, reply := e.step(ctx, userID, current, strings.TrimSpace(text))
	e.sessions.Put(userID, next)

	e.logger.Debug("turn",
		zap.String("user", userID),
		zap.String("from", string(current.State)),
		zap.String("to", string(next.State)),
	)

	if prefix == "" {
		return reply
	}
	return prefix + "\n\n" + reply
}

// Summary lists the user's active loans without touching the session.
func (e *Engine) Summary(ctx context.Context, userID string) string {
	return e.exec.Execute(ctx, userID, intent.Intent{Tag: intent.QueryDebts, Confidence: 1, Source: intent.SourceRules})
}

// Reset drops the user's session.
func (e *Engine) Reset(userID string) {
	unlock := e.sessions.Lock(userID)
	defer unlock()
	e.sessions.Clear(userID)
}

func (e *Engine) step(ctx context.Context, userID string, s Session, text string) (Session, string) {
	norm := normalize(text)

	if s.State != StateIdle && e.vocab.IsCancel(norm) {
		if s.State == StateConfirmAction {
			e.recordFeedback(ctx, userID, s, feedback.Rejected)
		}
		return idleSession(), msgCancelled
	}

	switch s.State {
	case StateSelectLoan:
		return e.selectLoan(ctx, s, norm)
	case StateClarifyIntent:
		return e.clarifyDirection(ctx, s, text, norm)
	case StateConfirmAction:
		return e.confirmPending(ctx, userID, s, text, norm)
	default:
		return e.idle(ctx, userID, text, norm)
	}
}

func (e *Engine) idle(ctx context.Context, userID, text, norm string) (Session, string) {
	if norm == "" {
		return idleSession(), msgGenericHelp
	}
	if strings.Contains(norm, "close loan") {
		return e.closeLoan(ctx, userID)
	}
	if days, message, ok := parseReminder(text); ok {
		return e.scheduleReminder(ctx, userID, days, message)
	}
	return e.interpret(ctx, userID, text)
}

func (e *Engine) closeLoan(ctx context.Context, userID string) (Session, string) {
	loans, err := e.ledger.ListActiveLoans(ctx, userID)
	if err != nil {
		e.logger.Error("list loans failed", zap.String("user", userID), zap.Error(err))
		return idleSession(), msgStorageError
	}

	switch len(loans) {
	case 0:
		return idleSession(), msgNoLoansToSee
	case 1:
		return e.closeSelected(ctx, loans[0])
	}

	var b strings.Builder
	b.WriteString("You have multiple active loans. Which one?")
	for i, l := range loans {
		b.WriteString("\n" + strconv.Itoa(i+1) + ". " + l.Entity + " (" + formatMoney(l.Remaining) + ")")
	}
	return selectSession(loans), b.String()
}

func (e *Engine) closeSelected(ctx context.Context, loan ledger.Loan) (Session, string) {
	if err := e.ledger.CloseLoan(ctx, loan.ID); err != nil {
		e.logger.Error("close loan failed", zap.Int64("loan", loan.ID), zap.Error(err))
		return idleSession(), msgStorageError
	}
	return idleSession(), "Closed the loan with " + loan.Entity + "."
}

func (e *Engine) selectLoan(ctx context.Context, s Session, norm string) (Session, string) {
	if idx, ok := e.pickOption(s.LoanOptions, norm); ok {
		return e.closeSelected(ctx, s.LoanOptions[idx])
	}
	return s, msgSelectAgain
}

// pickOption matches an ordinal word, a 1-based number, or a counterparty
// name, in that order.
func (e *Engine) pickOption(options []ledger.Loan, norm string) (int, bool) {
	if i, ok := e.vocab.Ordinal(norm); ok && i < len(options) {
		return i, true
	}
	for _, tok := range strings.Fields(norm) {
		n, err := strconv.Atoi(strings.Trim(tok, "#.)"))
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, true
		}
	}
	for i, l := range options {
		if l.Entity != "" && strings.Contains(norm, strings.ToLower(l.Entity)) {
			return i, true
		}
	}
	return 0, false
}

func (e *Engine) clarifyDirection(ctx context.Context, s Session, text, norm string) (Session, string) {
	pending := *s.Pending

	var tag intent.Tag
	switch {
	case e.vocab.MentionsLend(norm):
		tag = intent.LoanGiven
	case e.vocab.MentionsRepay(norm):
		tag = intent.LoanReceived
	default:
		return s, withFollowUp(e.chat(ctx, text, msgChatFallback), directionQuestion(pending))
	}

	resolved := pending.WithTag(tag).WithConfirmation(true)
	return confirmSession(resolved, s.PendingText), pendingQuestion(resolved)
}

func (e *Engine) confirmPending(ctx context.Context, userID string, s Session, text, norm string) (Session, string) {
	pending := *s.Pending

	switch {
	case e.vocab.IsAffirmative(norm):
		reply := e.exec.Execute(ctx, userID, pending)
		e.recordFeedback(ctx, userID, s, string(pending.Tag))
		return idleSession(), reply
	case e.vocab.IsNegative(norm):
		e.recordFeedback(ctx, userID, s, feedback.Rejected)
		return idleSession(), msgRejected
	}

	if !pending.HasEntity() {
		if name, ok := e.nameFrom(text); ok {
			named := pending.WithEntity(name)
			return confirmSession(named, s.PendingText), confirmQuestion(named)
		}
	}
	return s, withFollowUp(e.chat(ctx, text, msgChatFallback), pendingQuestion(pending))
}

var titleCase = cases.Title(language.English)

// nameFrom treats a short answer as the missing counterparty name.
func (e *Engine) nameFrom(text string) (string, bool) {
	if strings.Contains(text, "?") || len(strings.Fields(text)) >= 5 {
		return "", false
	}
	name := strings.Trim(e.vocab.StripFiller(text), ".,!;: ")
	words := strings.Fields(name)
	if len(words) == 0 {
		return "", false
	}
	for _, w := range words {
		for _, r := range w {
			if !isNameRune(r) {
				return "", false
			}
		}
	}
	return titleCase.String(strings.Join(words, " ")), true
}

func isNameRune(r rune) bool {
	return r == '-' || r == '\'' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127
}

func (e *Engine) recordFeedback(ctx context.Context, userID string, s Session, confirmed string) {
	if s.Pending == nil {
		return
	}
	err := e.feedback.RecordFeedback(ctx, feedback.Entry{
		UserID:     userID,
		Text:       s.PendingText,
		Predicted:  s.Pending.Tag,
		Confirmed:  confirmed,
		Confidence: s.Pending.Confidence,
		Source:     s.Pending.Source,
		CreatedAt:  e.now(),
	})
	if err != nil {
		e.logger.Warn("record feedback failed", zap.String("user", userID), zap.Error(err))
	}
}
