package rules

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/susu3304/loanbot/internal/intent"
)

// Confidence tiers assigned by the parser.
const (
	KeywordConfidence   = 1.0
	DirectionConfidence = 0.9
	AmbiguousConfidence = 0.5
)

type keywordRule struct {
	tag      intent.Tag
	keywords []string
}

// Explicit keywords, checked in order. The first entry with a match wins.
var keywordRules = []keywordRule{
	{intent.LoanGiven, []string{"lent", "loaned", "gave"}},
	{intent.LoanReceived, []string{"returned", "paid back", "repaid"}},
	{intent.QueryDebts, []string{"who owes", "owes me", "my debts", "my loans", "outstanding", "pending", "debts"}},
}

var (
	lendVerbs    = []string{"lend", "lent", "gave"}
	receiveVerbs = []string{"received", "got", "repaid", "returned", "paid"}
)

// Capitalised words that are never a counterparty.
var stopwords = map[string]bool{
	"i": true, "me": true, "my": true, "you": true, "he": true, "she": true,
	"they": true, "we": true, "him": true, "her": true, "them": true,
	"who": true, "what": true, "how": true, "when": true, "why": true,
	"the": true, "a": true, "an": true, "and": true, "to": true, "from": true,
	"hey": true, "hi": true, "hello": true, "please": true, "ok": true, "okay": true,
	"yes": true, "no": true, "today": true, "yesterday": true, "tomorrow": true,
	"remind": true, "close": true, "loan": true, "back": true, "just": true,
}

var (
	amountPattern   = regexp.MustCompile(`\b\d+(\.\d{1,2})?\b`)
	thousandsFormat = regexp.MustCompile(`(\d),(\d{3})\b`)
	phrasePatterns  = map[string]*regexp.Regexp{}
)

func init() {
	vocab := append(append([]string{}, lendVerbs...), receiveVerbs...)
	for _, kr := range keywordRules {
		vocab = append(vocab, kr.keywords...)
	}
	for _, phrase := range vocab {
		phrasePatterns[phrase] = regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
		for _, word := range strings.Fields(phrase) {
			stopwords[word] = true
		}
	}
}

// Parser is the deterministic first-pass parser. It holds no state.
type Parser struct{}

func New() Parser { return Parser{} }

func (Parser) Parse(text string) intent.Intent {
	return Parse(text)
}

// Parse classifies text with keyword rules. It never fails: anything it
// cannot place comes back as a clarify intent.
func Parse(text string) intent.Intent {
	lower := strings.ToLower(text)
	result := intent.NewClarify(intent.SourceRules)
	if entity, ok := extractEntity(text); ok {
		result = result.WithEntity(entity)
	}
	if amount, ok := extractAmount(text); ok {
		if !intent.ValidAmount(amount) {
			return intent.NewClarify(intent.SourceRules)
		}
		result = result.WithAmount(amount)
	}

	for _, kr := range keywordRules {
		if containsAny(lower, kr.keywords) {
			return result.WithTag(kr.tag).WithConfidence(KeywordConfidence)
		}
	}

	switch {
	case containsAny(lower, lendVerbs):
		return result.WithTag(intent.LoanGiven).WithConfidence(DirectionConfidence)
	case containsAny(lower, receiveVerbs):
		return result.WithTag(intent.LoanReceived).WithConfidence(DirectionConfidence)
	}

	if result.HasEntity() && result.HasAmount() {
		return result.WithConfidence(AmbiguousConfidence).WithConfirmation(true)
	}
	return result
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if phrasePatterns[p].MatchString(lower) {
			return true
		}
	}
	return false
}

func extractAmount(text string) (float64, bool) {
	normalized := thousandsFormat.ReplaceAllString(text, "$1$2")
	match := amountPattern.FindString(normalized)
	if match == "" {
		return 0, false
	}
	// out-of-range digits parse to +Inf, which ValidAmount rejects
	amount, err := strconv.ParseFloat(match, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return amount, true
}

// extractEntity returns the first capitalised word that is not a pronoun,
// filler or one of the parser's own keywords.
func extractEntity(text string) (string, bool) {
	for _, raw := range strings.Fields(text) {
		word := strings.Trim(raw, ".,?!:;\"")
		word = strings.TrimSuffix(strings.TrimSuffix(word, "'s"), "’s")
		if word == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(first) || !isName(word) {
			continue
		}
		if stopwords[strings.ToLower(word)] {
			continue
		}
		return word, true
	}
	return "", false
}

func isName(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}
