package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/susu3304/loanbot/internal/intent"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want intent.Intent
	}{
		{
			text: "I lent John 50",
			want: intent.Intent{Tag: intent.LoanGiven, Entity: ptr("John"), Amount: ptr(50.0), Confidence: 1.0, Source: intent.SourceRules},
		},
		{
			text: "Lent Sarah $1,200 yesterday",
			want: intent.Intent{Tag: intent.LoanGiven, Entity: ptr("Sarah"), Amount: ptr(1200.0), Confidence: 1.0, Source: intent.SourceRules},
		},
		{
			text: "John paid me back 40",
			want: intent.Intent{Tag: intent.LoanReceived, Entity: ptr("John"), Amount: ptr(40.0), Confidence: 1.0, Source: intent.SourceRules},
		},
		{
			text: "Mike paid me 40.5",
			want: intent.Intent{Tag: intent.LoanReceived, Entity: ptr("Mike"), Amount: ptr(40.5), Confidence: 0.9, Source: intent.SourceRules},
		},
		{
			text: "I got 20 from Anna.",
			want: intent.Intent{Tag: intent.LoanReceived, Entity: ptr("Anna"), Amount: ptr(20.0), Confidence: 0.9, Source: intent.SourceRules},
		},
		{
			text: "can I lend Tom 15",
			want: intent.Intent{Tag: intent.LoanGiven, Entity: ptr("Tom"), Amount: ptr(15.0), Confidence: 0.9, Source: intent.SourceRules},
		},
		{
			text: "Who owes me?",
			want: intent.Intent{Tag: intent.QueryDebts, Confidence: 1.0, Source: intent.SourceRules},
		},
		{
			text: "John 300",
			want: intent.Intent{Tag: intent.Clarify, Entity: ptr("John"), Amount: ptr(300.0), Confidence: 0.5, Source: intent.SourceRules, NeedsConfirmation: true},
		},
		{
			text: "hello there",
			want: intent.Intent{Tag: intent.Clarify, Source: intent.SourceRules},
		},
		{
			text: "I forgave Bob",
			want: intent.Intent{Tag: intent.Clarify, Entity: ptr("Bob"), Source: intent.SourceRules},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := New().Parse(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestExtractEntitySkipsPossessive(t *testing.T) {
	got, ok := extractEntity("put it on Maria's tab")
	if !ok || got != "Maria" {
		t.Errorf("extractEntity = %q, %v", got, ok)
	}
}

func TestExtractAmountNone(t *testing.T) {
	if _, ok := extractAmount("a few bucks"); ok {
		t.Error("expected no amount")
	}
}

func TestParseRejectsOversizedAmount(t *testing.T) {
	for _, text := range []string{
		"I lent John 99999999999999999999",
		"I lent John 1000000000001",
	} {
		got := Parse(text)
		want := intent.NewClarify(intent.SourceRules)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Parse(%q) mismatch (-want +got):\n%s", text, diff)
		}
	}

	got := Parse("I lent John 1000000000000")
	if got.AmountOr(0) != intent.MaxAmount {
		t.Errorf("Parse at the limit: amount = %v", got.AmountOr(0))
	}
}

func ptr[T any](v T) *T { return &v }
