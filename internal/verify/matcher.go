package verify

import (
	"strings"

	"github.com/ppiankov/veridex/internal/model"
)

// MatchDetector decides whether accumulated evidence corroborates a claim's
// who/what anchor. Pluggable; the verifier's control flow does not depend on
// how the decision is made.
type MatchDetector interface {
	Matches(subs []model.SubAssertion, evidence []model.EvidenceItem) bool
}

// KeywordMatcher is the default detector: token overlap between the who/what
// anchor terms and any single evidence item's content. Deliberately simple;
// semantic similarity belongs behind the same interface, not in the verifier.
type KeywordMatcher struct {
	// MinOverlap is the fraction of anchor tokens a single evidence item
	// must contain to count as a match.
	MinOverlap float64
}

// NewKeywordMatcher creates a keyword matcher with the default threshold.
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{MinOverlap: 0.6}
}

// Matches reports whether any evidence item covers enough anchor tokens.
func (m *KeywordMatcher) Matches(subs []model.SubAssertion, evidence []model.EvidenceItem) bool {
	if len(evidence) == 0 {
		return false
	}

	var anchor []string
	for _, s := range subs {
		if s.Kind == model.KindWho || s.Kind == model.KindWhat {
			anchor = append(anchor, tokenize(s.Text)...)
		}
	}
	if len(anchor) == 0 {
		return false
	}

	for _, ev := range evidence {
		content := strings.ToLower(ev.Content)
		hits := 0
		for _, tok := range anchor {
			if strings.Contains(content, tok) {
				hits++
			}
		}
		if float64(hits)/float64(len(anchor)) >= m.MinOverlap {
			return true
		}
	}
	return false
}

// stopwords excluded from anchor tokens
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "and": true, "is": true, "has": true,
	"have": true, "its": true, "it": true, "that": true, "with": true,
}

// tokenize lowercases and splits text into significant tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
