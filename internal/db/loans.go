package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/susu3304/loanbot/internal/ledger"
)

const loanColumns = `id, user_id, memory_type, entity, amount, remaining_amount, currency,
	COALESCE(description, ''), status, due_date, created_at, closed_at`

func scanLoan(row pgx.Row) (*ledger.Loan, error) {
	var l ledger.Loan
	var kind, status string
	err := row.Scan(&l.ID, &l.UserID, &kind, &l.Entity, &l.Amount, &l.Remaining, &l.Currency,
		&l.Description, &status, &l.DueDate, &l.CreatedAt, &l.ClosedAt)
	if err != nil {
		return nil, err
	}
	l.Kind = ledger.Kind(kind)
	l.Status = ledger.Status(status)
	return &l, nil
}

func (db *DB) CreateLoan(ctx context.Context, userID, entity string, amount float64) (*ledger.Loan, error) {
	loan, err := scanLoan(db.pool.QueryRow(ctx,
		`INSERT INTO memory_facts (user_id, memory_type, entity, amount, remaining_amount, currency, description, status)
		VALUES ($1, 'loan', $2, $3, $3, $4, 'Loan given via chat', 'active')
		RETURNING `+loanColumns,
		userID, entity, amount, ledger.DefaultCurrency,
	))
	if err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return loan, nil
}

func (db *DB) CloseLoan(ctx context.Context, loanID int64) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE memory_facts SET status = 'closed', remaining_amount = 0, closed_at = CURRENT_DATE
		WHERE id = $1 AND memory_type = 'loan'`,
		loanID,
	)
	if err != nil {
		return fmt.Errorf("close loan: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrLoanNotFound
	}
	return nil
}

func (db *DB) UpdateRemaining(ctx context.Context, loanID int64, remaining float64) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE memory_facts SET remaining_amount = $2 WHERE id = $1 AND memory_type = 'loan'`,
		loanID, remaining,
	)
	if err != nil {
		return fmt.Errorf("update remaining: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrLoanNotFound
	}
	return nil
}

func (db *DB) RecordRepayment(ctx context.Context, userID, entity string, amount float64, note string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO memory_facts (user_id, memory_type, entity, amount, remaining_amount, currency, description, status)
		VALUES ($1, 'repayment', $2, $3, 0, $4, $5, 'closed')`,
		userID, entity, amount, ledger.DefaultCurrency, note,
	)
	if err != nil {
		return fmt.Errorf("record repayment: %w", err)
	}
	return nil
}

func (db *DB) FindActiveLoanByEntity(ctx context.Context, userID, entity string) (*ledger.Loan, error) {
	loan, err := scanLoan(db.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM memory_facts
		WHERE user_id = $1 AND memory_type = 'loan' AND status = 'active' AND LOWER(entity) = LOWER($2)
		ORDER BY created_at, id
		LIMIT 1`,
		userID, entity,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active loan: %w", err)
	}
	return loan, nil
}

func (db *DB) ListActiveLoans(ctx context.Context, userID string) ([]ledger.Loan, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+loanColumns+` FROM memory_facts
		WHERE user_id = $1 AND memory_type = 'loan' AND status = 'active' AND remaining_amount > 0
		ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	defer rows.Close()

	var out []ledger.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *loan)
	}
	return out, rows.Err()
}

// Repayments lists the repayment notes recorded for a user, oldest first.
func (db *DB) Repayments(ctx context.Context, userID string) ([]ledger.Loan, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+loanColumns+` FROM memory_facts
		WHERE user_id = $1 AND memory_type = 'repayment'
		ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list repayments: %w", err)
	}
	defer rows.Close()

	var out []ledger.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *loan)
	}
	return out, rows.Err()
}
