package dialogue

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/intent"
	"github.com/susu3304/loanbot/internal/ledger"
)

// Executor applies a resolved intent to the ledger and describes the result.
type Executor struct {
	ledger ledger.Ledger
	logger *zap.Logger
}

func NewExecutor(l ledger.Ledger, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{ledger: l, logger: logger}
}

// Execute never fails; storage errors are logged and reported as an apology.
func (x *Executor) Execute(ctx context.Context, userID string, in intent.Intent) string {
	switch in.Tag {
	case intent.LoanGiven:
		return x.recordLoan(ctx, userID, in)
	case intent.LoanReceived:
		return x.recordRepayment(ctx, userID, in)
	case intent.QueryDebts:
		return x.listDebts(ctx, userID)
	default:
		return msgNotSure
	}
}

func (x *Executor) recordLoan(ctx context.Context, userID string, in intent.Intent) string {
	entity := in.EntityOr("someone")
	amount := in.AmountOr(0)

	if _, err := x.ledger.CreateLoan(ctx, userID, entity, amount); err != nil {
		x.logger.Error("create loan failed", zap.String("user", userID), zap.String("entity", entity), zap.Error(err))
		return msgStorageError
	}
	return fmt.Sprintf("Recorded — you successfully **lent** %s %s.", entity, formatMoney(amount))
}

func (x *Executor) recordRepayment(ctx context.Context, userID string, in intent.Intent) string {
	entity := in.EntityOr("")
	paid := in.AmountOr(0)

	loan, err := x.ledger.FindActiveLoanByEntity(ctx, userID, entity)
	if err != nil {
		x.logger.Error("find loan failed", zap.String("user", userID), zap.String("entity", entity), zap.Error(err))
		return msgStorageError
	}
	if loan == nil {
		return fmt.Sprintf("I couldn't find an active loan for **%s**.", in.EntityOr("them"))
	}

	remaining := roundCents(loan.Remaining - paid)
	if remaining <= 0 {
		if err := x.ledger.CloseLoan(ctx, loan.ID); err != nil {
			x.logger.Error("close loan failed", zap.Int64("loan", loan.ID), zap.Error(err))
			return msgStorageError
		}
		x.note(ctx, userID, loan.Entity, paid, "Full repayment; loan settled")
		return fmt.Sprintf("Loan settled! %s paid off the full balance.", loan.Entity)
	}

	if err := x.ledger.UpdateRemaining(ctx, loan.ID, remaining); err != nil {
		x.logger.Error("update remaining failed", zap.Int64("loan", loan.ID), zap.Error(err))
		return msgStorageError
	}
	x.note(ctx, userID, loan.Entity, paid, "Partial repayment")
	return fmt.Sprintf("Recorded. %s paid **%s**.\nRemaining balance: **%s**.", loan.Entity, formatMoney(paid), formatMoney(remaining))
}

// roundCents drops float residue so exact partial repayments settle.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// note records the repayment fact. The loan balance is already updated, so a
// failure here is only logged.
func (x *Executor) note(ctx context.Context, userID, entity string, amount float64, text string) {
	if err := x.ledger.RecordRepayment(ctx, userID, entity, amount, text); err != nil {
		x.logger.Warn("record repayment note failed", zap.String("user", userID), zap.Error(err))
	}
}

func (x *Executor) listDebts(ctx context.Context, userID string) string {
	loans, err := x.ledger.ListActiveLoans(ctx, userID)
	if err != nil {
		x.logger.Error("list loans failed", zap.String("user", userID), zap.Error(err))
		return msgStorageError
	}
	if len(loans) == 0 {
		return msgNoActiveLoans
	}

	var b strings.Builder
	b.WriteString("Here's what's pending:")
	for _, l := range loans {
		fmt.Fprintf(&b, "\n- %s owes you %s", l.Entity, formatMoney(l.Remaining))
	}
	return b.String()
}
