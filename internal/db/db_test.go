package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/loanbot/internal/feedback"
	"github.com/susu3304/loanbot/internal/intent"
	"github.com/susu3304/loanbot/internal/ledger"
)

var _ ledger.Ledger = (*DB)(nil)
var _ feedback.Recorder = (*DB)(nil)
var _ ledger.History = (*DB)(nil)
var _ feedback.Lister = (*DB)(nil)

// openTestDB connects to LOANBOT_TEST_DATABASE_URL and skips otherwise. Each
// test gets its own user id so runs do not interfere.
func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	url := os.Getenv("LOANBOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LOANBOT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.RunMigrations(ctx))
	return database, fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())
}

func TestLoanLifecycle(t *testing.T) {
	database, user := openTestDB(t)
	ctx := context.Background()

	first, err := database.CreateLoan(ctx, user, "John", 100)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusActive, first.Status)
	assert.Equal(t, 100.0, first.Remaining)
	_, err = database.CreateLoan(ctx, user, "Alex", 25)
	require.NoError(t, err)

	found, err := database.FindActiveLoanByEntity(ctx, user, "john")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	require.NoError(t, database.UpdateRemaining(ctx, first.ID, 60))
	require.NoError(t, database.RecordRepayment(ctx, user, "John", 40, "partial repayment"))

	loans, err := database.ListActiveLoans(ctx, user)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, 60.0, loans[0].Remaining)

	notes, err := database.Repayments(ctx, user)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, ledger.KindRepayment, notes[0].Kind)
	assert.Equal(t, "partial repayment", notes[0].Description)

	require.NoError(t, database.CloseLoan(ctx, first.ID))
	found, err = database.FindActiveLoanByEntity(ctx, user, "John")
	require.NoError(t, err)
	assert.Nil(t, found)

	assert.ErrorIs(t, database.CloseLoan(ctx, -1), ledger.ErrLoanNotFound)
}

func TestTakeDueRemindersOnce(t *testing.T) {
	database, user := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := database.CreateReminder(ctx, user, "call Mike", now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = database.CreateReminder(ctx, user, "later", now.Add(time.Hour))
	require.NoError(t, err)

	due, err := database.TakeDueReminders(ctx, user, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "call Mike", due[0].Message)
	assert.Equal(t, ledger.ReminderSent, due[0].Status)

	again, err := database.TakeDueReminders(ctx, user, now)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRecordFeedback(t *testing.T) {
	database, user := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.RecordFeedback(ctx, feedback.Entry{
		UserID:     user,
		Text:       "John 300",
		Predicted:  intent.LoanGiven,
		Confirmed:  string(intent.LoanGiven),
		Confidence: 0.5,
		Source:     intent.SourceRules,
	}))

	entries, err := database.ListFeedback(ctx, user)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, intent.LoanGiven, entries[0].Predicted)
}
