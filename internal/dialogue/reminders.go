package dialogue

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultReminderMessage = "check this"
	maxReminderDays        = 3650
)

var reminderCommand = regexp.MustCompile(`(?i)\bremind me in (\d+) days?\b(?:\s+to\s+(.+))?`)

// parseReminder reads "remind me in N days [to message]". Anything else,
// including a non-numeric day count, is not a reminder command.
func parseReminder(text string) (days int, message string, ok bool) {
	m := reminderCommand.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days > maxReminderDays {
		return 0, "", false
	}
	message = strings.TrimRight(strings.TrimSpace(m[2]), ".!")
	if message == "" {
		message = defaultReminderMessage
	}
	return days, message, true
}

func (e *Engine) scheduleReminder(ctx context.Context, userID string, days int, message string) (Session, string) {
	remindAt := e.now().AddDate(0, 0, days)
	if _, err := e.ledger.CreateReminder(ctx, userID, message, remindAt); err != nil {
		e.logger.Error("create reminder failed", zap.String("user", userID), zap.Error(err))
		return idleSession(), msgStorageError
	}

	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return idleSession(), fmt.Sprintf("Okay, I'll remind you in %d %s to %s.", days, unit, message)
}

// dueReminders takes every reminder that has come due and renders them as a
// reply prefix. An empty string means nothing was due.
func (e *Engine) dueReminders(ctx context.Context, userID string) string {
	now := e.now()
	due, err := e.ledger.TakeDueReminders(ctx, userID, now)
	if err != nil {
		e.logger.Warn("take due reminders failed", zap.String("user", userID), zap.Error(err))
		return ""
	}

	lines := make([]string, 0, len(due))
	for _, r := range due {
		lines = append(lines, fmt.Sprintf("🔔 Reminder (you asked me %s): %s", since(r.CreatedAt, now), r.Message))
	}
	return strings.Join(lines, "\n")
}

// since describes how long ago t was in whole days.
func since(t, now time.Time) string {
	// calendar days in now's zone; rounding absorbs DST-length days
	days := int(math.Round(startOfDay(now).Sub(startOfDay(t.In(now.Location()))).Hours() / 24))
	switch {
	case days <= 0:
		return "earlier today"
	case days == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
