package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/susu3304/loanbot/internal/ledger"
)

func (db *DB) CreateReminder(ctx context.Context, userID, message string, remindAt time.Time) (*ledger.Reminder, error) {
	var r ledger.Reminder
	var status string
	err := db.pool.QueryRow(ctx,
		`INSERT INTO reminders (user_id, message, remind_at, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, user_id, message, remind_at, status, created_at`,
		userID, message, remindAt,
	).Scan(&r.ID, &r.UserID, &r.Message, &r.RemindAt, &status, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	r.Status = ledger.ReminderStatus(status)
	return &r, nil
}

// TakeDueReminders marks due reminders as sent in the same statement that
// reads them, so concurrent callers never see the same reminder twice.
func (db *DB) TakeDueReminders(ctx context.Context, userID string, now time.Time) ([]ledger.Reminder, error) {
	rows, err := db.pool.Query(ctx,
		`UPDATE reminders SET status = 'sent', sent_at = $2
		WHERE user_id = $1 AND status = 'pending' AND remind_at <= $2
		RETURNING id, user_id, message, remind_at, status, created_at`,
		userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("take due reminders: %w", err)
	}
	defer rows.Close()

	var out []ledger.Reminder
	for rows.Next() {
		var r ledger.Reminder
		var status string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Message, &r.RemindAt, &status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = ledger.ReminderStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemindAt.Before(out[j].RemindAt) })
	return out, nil
}
