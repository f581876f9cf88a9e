package dialogue

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/susu3304/loanbot/internal/intent"
)

const (
	msgCancelled     = "Okay 👍 please rephrase what you meant."
	msgRejected      = "No problem 👍 please rephrase what you meant and I'll try again."
	msgSelectAgain   = "I didn't catch which one. Please say 'first' or the name."
	msgNoLoansToSee  = "I don't see any active loans 🙂"
	msgNoActiveLoans = "You don't have any active loans 🙂"
	msgNotSure       = "I wasn't sure how to process that."
	msgStorageError  = "Sorry, I couldn't update your ledger right now. Please try again in a moment."
	msgChatFallback  = "Sorry, I didn't quite get that."
	msgGenericHelp   = "I'm not sure what you meant. You can tell me things like \"I lent John 50\" or ask \"who owes me?\"."
)

// maxExact bounds the amounts Comma and FormatFloat render through int64.
const maxExact = 1 << 53

func formatMoney(amount float64) string {
	switch {
	case math.Abs(amount) > maxExact:
		return "$" + humanize.Commaf(math.Round(amount))
	case amount == math.Trunc(amount):
		return "$" + humanize.Comma(int64(amount))
	default:
		return "$" + humanize.FormatFloat("#,###.##", amount)
	}
}

func amountPhrase(in intent.Intent) string {
	if !in.HasAmount() {
		return "the money"
	}
	return formatMoney(*in.Amount)
}

// confirmQuestion asks the yes/no question for a loan direction with a
// known counterparty.
func confirmQuestion(in intent.Intent) string {
	entity := in.EntityOr("someone")
	if in.Tag == intent.LoanReceived {
		return fmt.Sprintf("Do you want to record that %s paid you back %s?", entity, amountPhrase(in))
	}
	return fmt.Sprintf("Do you want to record that you lent %s %s?", entity, amountPhrase(in))
}

func nameQuestion(in intent.Intent) string {
	if in.Tag == intent.LoanReceived {
		return fmt.Sprintf("Who paid you back %s?", amountPhrase(in))
	}
	return fmt.Sprintf("Who did you lend %s to?", amountPhrase(in))
}

// pendingQuestion is what CONFIRM_ACTION is waiting on.
func pendingQuestion(in intent.Intent) string {
	if !in.HasEntity() {
		return nameQuestion(in)
	}
	return confirmQuestion(in)
}

func directionQuestion(in intent.Intent) string {
	entity := in.EntityOr("someone")
	amount := amountPhrase(in)
	return fmt.Sprintf("Did you lend %s %s, or did %s repay you %s?", entity, amount, entity, amount)
}

func withFollowUp(reply, question string) string {
	return strings.TrimSpace(reply) + "\n\n" + question
}
