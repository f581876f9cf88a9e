package dialogue

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary holds the phrase sets the state machine recognises.
type Vocabulary struct {
	Affirmative []string `yaml:"affirmative"`
	Negative    []string `yaml:"negative"`
	Cancel      []string `yaml:"cancel"`
	Lend        []string `yaml:"lend"`
	Repay       []string `yaml:"repay"`
	NameFillers []string `yaml:"name_fillers"`
	Ordinals    []string `yaml:"ordinals"`

	lendPattern  *regexp.Regexp
	repayPattern *regexp.Regexp
}

// DefaultVocabulary returns the built-in phrase sets.
func DefaultVocabulary() *Vocabulary {
	v, err := parseVocabulary(defaultVocabulary, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return v
}

// LoadVocabulary reads a YAML file. Categories the file leaves out keep their
// built-in values.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return parseVocabulary(data, DefaultVocabulary())
}

func parseVocabulary(data []byte, base *Vocabulary) (*Vocabulary, error) {
	v := &Vocabulary{}
	if base != nil {
		*v = *base
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	for _, set := range []*[]string{&v.Affirmative, &v.Negative, &v.Cancel, &v.Lend, &v.Repay, &v.NameFillers, &v.Ordinals} {
		*set = normalizeAll(*set)
	}
	if len(v.Lend) == 0 || len(v.Repay) == 0 {
		return nil, fmt.Errorf("parse vocabulary: lend and repay must not be empty")
	}
	v.lendPattern = wordPattern(v.Lend)
	v.repayPattern = wordPattern(v.Repay)
	return v, nil
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func wordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// normalize lower-cases, collapses whitespace and drops trailing punctuation.
func normalize(text string) string {
	s := strings.ToLower(strings.Join(strings.Fields(text), " "))
	return strings.TrimRight(s, ".!?, ")
}

func contains(set []string, s string) bool {
	for _, item := range set {
		if item == s {
			return true
		}
	}
	return false
}

func (v *Vocabulary) IsAffirmative(normalized string) bool { return contains(v.Affirmative, normalized) }
func (v *Vocabulary) IsNegative(normalized string) bool { return contains(v.Negative, normalized) }
func (v *Vocabulary) IsCancel(normalized string) bool { return contains(v.Cancel, normalized) }

func (v *Vocabulary) MentionsLend(normalized string) bool { return v.lendPattern.MatchString(normalized) }
func (v *Vocabulary) MentionsRepay(normalized string) bool { return v.repayPattern.MatchString(normalized) }

// StripFiller removes a leading "his name is"-style phrase from text.
func (v *Vocabulary) StripFiller(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, f := range v.NameFillers {
		n := len(f)
		if len(trimmed) > n && trimmed[n] == ' ' && strings.EqualFold(trimmed[:n], f) {
			return strings.TrimSpace(trimmed[n:])
		}
	}
	return trimmed
}

// Ordinal returns the zero-based index named by an ordinal word in text.
func (v *Vocabulary) Ordinal(normalized string) (int, bool) {
	for _, word := range strings.Fields(normalized) {
		for i, o := range v.Ordinals {
			if word == o {
				return i, true
			}
		}
	}
	return 0, false
}
