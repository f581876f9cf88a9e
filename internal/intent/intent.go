package intent

// Tag names the financial action a message expresses.
type Tag string

const (
	LoanGiven    Tag = "loan_given"
	LoanReceived Tag = "loan_received"
	QueryDebts   Tag = "query_debts"
	Clarify      Tag = "clarify"
	Unknown      Tag = "unknown"
)

// Source records which parser produced an Intent.
type Source string

const (
	SourceRules Source = "rules"
	SourceLLM   Source = "llm"
)

// MaxAmount is the largest amount a parser will accept.
const MaxAmount = 1_000_000_000_000

// ValidAmount reports whether v can be stored and shown as a ledger amount.
func ValidAmount(v float64) bool {
	return v >= 0 && v <= MaxAmount
}

// IsLoanDirection reports whether the tag mutates the ledger.
func (t Tag) IsLoanDirection() bool {
	return t == LoanGiven || t == LoanReceived
}

// Intent is a parsed message. Values are never modified after construction;
// the With* methods return copies.
type Intent struct {
	Tag               Tag      `json:"intent"`
	Entity            *string  `json:"entity,omitempty"`
	Amount            *float64 `json:"amount,omitempty"`
	Confidence        float64  `json:"confidence"`
	Source            Source   `json:"source"`
	NeedsConfirmation bool     `json:"needs_confirmation"`
}

// NewClarify returns the zero-confidence result every parser falls back to.
func NewClarify(source Source) Intent {
	return Intent{Tag: Clarify, Source: source}
}

func (in Intent) HasEntity() bool { return in.Entity != nil && *in.Entity != "" }
func (in Intent) HasAmount() bool { return in.Amount != nil }

// EntityOr returns the entity or def when it is missing.
func (in Intent) EntityOr(def string) string {
	if in.HasEntity() {
		return *in.Entity
	}
	return def
}

// AmountOr returns the amount or def when it is missing.
func (in Intent) AmountOr(def float64) float64 {
	if in.Amount != nil {
		return *in.Amount
	}
	return def
}

func (in Intent) WithTag(tag Tag) Intent {
	in.Tag = tag
	return in
}

func (in Intent) WithEntity(entity string) Intent {
	in.Entity = &entity
	return in
}

func (in Intent) WithAmount(amount float64) Intent {
	in.Amount = &amount
	return in
}

func (in Intent) WithConfidence(c float64) Intent {
	in.Confidence = c
	return in
}

func (in Intent) WithConfirmation(needed bool) Intent {
	in.NeedsConfirmation = needed
	return in
}
