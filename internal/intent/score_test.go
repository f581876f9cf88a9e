package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		tag     Tag
		present []Field
		want    float64
	}{
		{"no intent", Tag(""), nil, 0.0},
		{"unknown tag", Unknown, []Field{FieldEntity}, 0.0},
		{"clarify", Clarify, nil, 0.0},
		{"no fields", LoanGiven, nil, 0.4},
		{"one of two", LoanGiven, []Field{FieldAmount}, 0.7},
		{"all fields", LoanReceived, []Field{FieldEntity, FieldAmount}, 1.0},
		{"duplicate field counted once", LoanGiven, []Field{FieldEntity, FieldEntity}, 0.7},
		{"zero-field query", QueryDebts, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.tag, tt.present); got != tt.want {
				t.Errorf("Score(%q, %v) = %v, want %v", tt.tag, tt.present, got, tt.want)
			}
		})
	}
}

func TestScoreIntent(t *testing.T) {
	in := NewClarify(SourceRules).WithTag(LoanGiven).WithEntity("John")
	if got := ScoreIntent(in); got != 0.7 {
		t.Errorf("ScoreIntent() = %v, want 0.7", got)
	}
	if got := ScoreIntent(in.WithAmount(50)); got != 1.0 {
		t.Errorf("ScoreIntent() = %v, want 1.0", got)
	}
	if got := ScoreIntent(in.WithEntity("")); got != 0.4 {
		t.Errorf("empty entity should not count, got %v", got)
	}
}

func TestWithReturnsCopy(t *testing.T) {
	base := NewClarify(SourceRules).WithAmount(10)
	changed := base.WithTag(LoanReceived).WithEntity("Mike").WithAmount(20)

	want := Intent{Tag: Clarify, Source: SourceRules, Amount: ptr(10.0)}
	if diff := cmp.Diff(want, base); diff != "" {
		t.Errorf("base intent modified (-want +got):\n%s", diff)
	}
	if changed.AmountOr(0) != 20 || changed.EntityOr("") != "Mike" {
		t.Errorf("unexpected copy: %+v", changed)
	}
}

func TestDefaults(t *testing.T) {
	var in Intent
	if got := in.EntityOr("someone"); got != "someone" {
		t.Errorf("EntityOr = %q", got)
	}
	if got := in.AmountOr(0); got != 0 {
		t.Errorf("AmountOr = %v", got)
	}
	if !LoanGiven.IsLoanDirection() || QueryDebts.IsLoanDirection() {
		t.Error("IsLoanDirection mismatch")
	}
}

func ptr[T any](v T) *T { return &v }
