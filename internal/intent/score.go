package intent

import "math"

// Field is a slot an intent can carry.
type Field string

const (
	FieldEntity Field = "entity"
	FieldAmount Field = "amount"
)

// requiredFields lists the slots each recognised tag needs before it can be
// executed. Tags absent from the table are not recognised.
var requiredFields = map[Tag][]Field{
	LoanGiven:    {FieldEntity, FieldAmount},
	LoanReceived: {FieldEntity, FieldAmount},
	QueryDebts:   {},
}

// RequiredFields returns the slots tag needs, and false for unrecognised tags.
func RequiredFields(tag Tag) ([]Field, bool) {
	fields, ok := requiredFields[tag]
	return fields, ok
}

// Score rates how complete a parse is: 0 for an unrecognised tag, otherwise
// 0.4 plus 0.6 times the share of required fields present, to two decimals.
func Score(tag Tag, present []Field) float64 {
	required, ok := requiredFields[tag]
	if !ok {
		return 0
	}
	if len(required) == 0 {
		return 1.0
	}

	have := make(map[Field]bool, len(present))
	for _, f := range present {
		have[f] = true
	}
	matched := 0
	for _, f := range required {
		if have[f] {
			matched++
		}
	}

	score := 0.4 + 0.6*float64(matched)/float64(len(required))
	return math.Round(score*100) / 100
}

// ScoreIntent scores the fields an intent actually carries.
func ScoreIntent(in Intent) float64 {
	var present []Field
	if in.HasEntity() {
		present = append(present, FieldEntity)
	}
	if in.HasAmount() {
		present = append(present, FieldAmount)
	}
	return Score(in.Tag, present)
}
