// Package sqlite is a single-file ledger for local use, backed by sqlx and the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/susu3304/loanbot/internal/feedback"
	"github.com/susu3304/loanbot/internal/intent"
	"github.com/susu3304/loanbot/internal/ledger"
)

const dateLayout = "2006-01-02"

type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens (or creates) the database at path and runs migrations. Use
// ":memory:" for a throwaway store.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serialises writers
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	migrations := []string{
		`PRAGMA busy_timeout = 5000`,
		`CREATE TABLE IF NOT EXISTS memory_facts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			memory_type TEXT NOT NULL,
			entity TEXT NOT NULL,
			amount REAL NOT NULL,
			remaining_amount REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			due_date TEXT,
			created_at INTEGER NOT NULL,
			closed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_facts_user_status ON memory_facts(user_id, memory_type, status)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			message TEXT NOT NULL,
			remind_at INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			sent_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(user_id, status, remind_at)`,
		`CREATE TABLE IF NOT EXISTS intent_feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			text TEXT NOT NULL,
			predicted TEXT NOT NULL,
			confirmed TEXT NOT NULL,
			confidence REAL NOT NULL,
			source TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

type factRow struct {
	ID          int64          `db:"id"`
	UserID      string         `db:"user_id"`
	Kind        string         `db:"memory_type"`
	Entity      string         `db:"entity"`
	Amount      float64        `db:"amount"`
	Remaining   float64        `db:"remaining_amount"`
	Currency    string         `db:"currency"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	DueDate     sql.NullString `db:"due_date"`
	CreatedAt   int64          `db:"created_at"`
	ClosedAt    sql.NullString `db:"closed_at"`
}

func (r factRow) loan() ledger.Loan {
	return ledger.Loan{
		ID:          r.ID,
		UserID:      r.UserID,
		Kind:        ledger.Kind(r.Kind),
		Entity:      r.Entity,
		Amount:      r.Amount,
		Remaining:   r.Remaining,
		Currency:    r.Currency,
		Description: r.Description,
		Status:      ledger.Status(r.Status),
		DueDate:     parseDate(r.DueDate),
		CreatedAt:   time.Unix(r.CreatedAt, 0),
		ClosedAt:    parseDate(r.ClosedAt),
	}
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s.String, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

const factColumns = `id, user_id, memory_type, entity, amount, remaining_amount, currency,
	description, status, due_date, created_at, closed_at`

func (db *DB) CreateLoan(ctx context.Context, userID, entity string, amount float64) (*ledger.Loan, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO memory_facts (user_id, memory_type, entity, amount, remaining_amount, currency, description, status, created_at)
		VALUES (?, 'loan', ?, ?, ?, ?, 'Loan given via chat', 'active', ?)`,
		userID, entity, amount, amount, ledger.DefaultCurrency, db.now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}

	var row factRow
	if err := db.conn.GetContext(ctx, &row, `SELECT `+factColumns+` FROM memory_facts WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	loan := row.loan()
	return &loan, nil
}

func (db *DB) CloseLoan(ctx context.Context, loanID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE memory_facts SET status = 'closed', remaining_amount = 0, closed_at = ?
		WHERE id = ? AND memory_type = 'loan'`,
		db.now().Format(dateLayout), loanID,
	)
	if err != nil {
		return fmt.Errorf("close loan: %w", err)
	}
	return expectRow(res)
}

func (db *DB) UpdateRemaining(ctx context.Context, loanID int64, remaining float64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE memory_facts SET remaining_amount = ? WHERE id = ? AND memory_type = 'loan'`,
		remaining, loanID,
	)
	if err != nil {
		return fmt.Errorf("update remaining: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrLoanNotFound
	}
	return nil
}

func (db *DB) RecordRepayment(ctx context.Context, userID, entity string, amount float64, note string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO memory_facts (user_id, memory_type, entity, amount, remaining_amount, currency, description, status, created_at)
		VALUES (?, 'repayment', ?, ?, 0, ?, ?, 'closed', ?)`,
		userID, entity, amount, ledger.DefaultCurrency, note, db.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record repayment: %w", err)
	}
	return nil
}

func (db *DB) FindActiveLoanByEntity(ctx context.Context, userID, entity string) (*ledger.Loan, error) {
	var row factRow
	err := db.conn.GetContext(ctx, &row,
		`SELECT `+factColumns+` FROM memory_facts
		WHERE user_id = ? AND memory_type = 'loan' AND status = 'active' AND LOWER(entity) = LOWER(?)
		ORDER BY created_at, id
		LIMIT 1`,
		userID, entity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active loan: %w", err)
	}
	loan := row.loan()
	return &loan, nil
}

func (db *DB) ListActiveLoans(ctx context.Context, userID string) ([]ledger.Loan, error) {
	var rows []factRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT `+factColumns+` FROM memory_facts
		WHERE user_id = ? AND memory_type = 'loan' AND status = 'active' AND remaining_amount > 0
		ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	out := make([]ledger.Loan, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.loan())
	}
	return out, nil
}

// Repayments lists the repayment notes recorded for a user, oldest first.
func (db *DB) Repayments(ctx context.Context, userID string) ([]ledger.Loan, error) {
	var rows []factRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT `+factColumns+` FROM memory_facts
		WHERE user_id = ? AND memory_type = 'repayment'
		ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Loan, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.loan())
	}
	return out, nil
}

type reminderRow struct {
	ID        int64  `db:"id"`
	UserID    string `db:"user_id"`
	Message   string `db:"message"`
	RemindAt  int64  `db:"remind_at"`
	Status    string `db:"status"`
	CreatedAt int64  `db:"created_at"`
}

func (r reminderRow) reminder() ledger.Reminder {
	return ledger.Reminder{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		RemindAt:  time.Unix(r.RemindAt, 0),
		Status:    ledger.ReminderStatus(r.Status),
		CreatedAt: time.Unix(r.CreatedAt, 0),
	}
}

func (db *DB) CreateReminder(ctx context.Context, userID, message string, remindAt time.Time) (*ledger.Reminder, error) {
	var row reminderRow
	err := db.conn.GetContext(ctx, &row,
		`INSERT INTO reminders (user_id, message, remind_at, status, created_at)
		VALUES (?, ?, ?, 'pending', ?)
		RETURNING id, user_id, message, remind_at, status, created_at`,
		userID, message, remindAt.Unix(), db.now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	r := row.reminder()
	return &r, nil
}

func (db *DB) TakeDueReminders(ctx context.Context, userID string, now time.Time) ([]ledger.Reminder, error) {
	var rows []reminderRow
	err := db.conn.SelectContext(ctx, &rows,
		`UPDATE reminders SET status = 'sent', sent_at = ?
		WHERE user_id = ? AND status = 'pending' AND remind_at <= ?
		RETURNING id, user_id, message, remind_at, status, created_at`,
		now.Unix(), userID, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("take due reminders: %w", err)
	}
	out := make([]ledger.Reminder, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.reminder())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemindAt.Before(out[j].RemindAt) })
	return out, nil
}

func (db *DB) RecordFeedback(ctx context.Context, e feedback.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO intent_feedback (user_id, text, predicted, confirmed, confidence, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Text, string(e.Predicted), e.Confirmed, e.Confidence, string(e.Source), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

type feedbackRow struct {
	UserID     string  `db:"user_id"`
	Text       string  `db:"text"`
	Predicted  string  `db:"predicted"`
	Confirmed  string  `db:"confirmed"`
	Confidence float64 `db:"confidence"`
	Source     string  `db:"source"`
	CreatedAt  int64   `db:"created_at"`
}

func (db *DB) ListFeedback(ctx context.Context, userID string) ([]feedback.Entry, error) {
	var rows []feedbackRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT user_id, text, predicted, confirmed, confidence, source, created_at
		FROM intent_feedback WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	out := make([]feedback.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, feedback.Entry{
			UserID:     r.UserID,
			Text:       r.Text,
			Predicted:  intent.Tag(r.Predicted),
			Confirmed:  r.Confirmed,
			Confidence: r.Confidence,
			Source:     intent.Source(r.Source),
			CreatedAt:  time.Unix(r.CreatedAt, 0),
		})
	}
	return out, nil
}
