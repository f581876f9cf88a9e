package db

import (
	"context"
	"fmt"
	"time"

	"github.com/susu3304/loanbot/internal/feedback"
	"github.com/susu3304/loanbot/internal/intent"
)

func (db *DB) RecordFeedback(ctx context.Context, e feedback.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO intent_feedback (user_id, text, predicted, confirmed, confidence, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.UserID, e.Text, string(e.Predicted), e.Confirmed, e.Confidence, string(e.Source), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

// ListFeedback returns a user's feedback entries, newest first.
func (db *DB) ListFeedback(ctx context.Context, userID string) ([]feedback.Entry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id, text, predicted, confirmed, confidence, source, created_at
		FROM intent_feedback WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []feedback.Entry
	for rows.Next() {
		var e feedback.Entry
		var predicted, source string
		if err := rows.Scan(&e.UserID, &e.Text, &predicted, &e.Confirmed, &e.Confidence, &source, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Predicted = intent.Tag(predicted)
		e.Source = intent.Source(source)
		out = append(out, e)
	}
	return out, rows.Err()
}
