package verify

import (
	"strings"

	"github.com/ppiankov/veridex/internal/model"
)

// Metadata annotations written by the aggregator. The two no-match reasons
// are distinguishable on purpose: a claim that never anchored a search is a
// different observability event than a claim no source corroborated.
const (
	MetaVerificationReason = "verification_reason"

	ReasonMissingWhoWhat = "missing-who-what"
	ReasonNoSourceMatch  = "no-source-match"
)

// Confidence assigned to a sub-assertion the search could neither anchor on
// nor score from evidence: uncertain, not zero, because the claim as a whole
// was corroborated.
const uncorroboratedConfidence = 0.5

// KindScorer derives a confidence for the non-anchor sub-assertion kinds
// (when, how, why, platform) from the evidence gathered for a matched claim.
// The boolean reports whether the scorer has a signal at all; without one the
// aggregator falls back to 0.5.
type KindScorer interface {
	Score(kind model.AssertionKind, sub model.SubAssertion, evidence []model.EvidenceItem) (float64, bool)
}

// NoSignalScorer is the documented default strategy: it never reports a
// signal, so every non-anchor kind lands on the 0.5 fallback.
type NoSignalScorer struct{}

// Score always reports no signal.
func (NoSignalScorer) Score(model.AssertionKind, model.SubAssertion, []model.EvidenceItem) (float64, bool) {
	return 0, false
}

// EvidenceKindScorer scores "when" from the presence of corroborating
// evidence timestamps and "platform" from evidence source identity. Other
// kinds report no signal.
type EvidenceKindScorer struct{}

// Score implements KindScorer.
func (EvidenceKindScorer) Score(kind model.AssertionKind, sub model.SubAssertion, evidence []model.EvidenceItem) (float64, bool) {
	switch kind {
	case model.KindWhen:
		for _, ev := range evidence {
			if !ev.Timestamp.IsZero() {
				return 0.75, true
			}
		}
	case model.KindPlatform:
		want := strings.ToLower(strings.TrimSpace(sub.Text))
		if want == "" {
			return 0, false
		}
		for _, ev := range evidence {
			if strings.Contains(want, strings.ToLower(ev.SourceID)) {
				return 1.0, true
			}
		}
	}
	return 0, false
}

// ScoreClaim maps a verification result onto a fully-scored copy of the
// claim. It is pure with respect to its inputs and never fails: the input
// claim is not mutated, and a nil scorer degrades to the no-signal default.
//
// Unmatched claims get 0.0 everywhere plus a reason annotation. Matched
// claims get 1.0 on the who/what/where anchors; the remaining kinds come from
// the scorer, defaulting to 0.5 when it has no signal. The overall confidence
// is the arithmetic mean over the sub-assertions actually present on the
// claim.
func ScoreClaim(claim *model.Claim, evidence []model.EvidenceItem, matched bool, reason string, scorer KindScorer) *model.Claim {
	if scorer == nil {
		scorer = NoSignalScorer{}
	}

	scored := claim.Clone()

	if !matched {
		for i := range scored.SubAssertions {
			scored.SubAssertions[i].Confidence = 0.0
		}
		scored.OverallConfidence = 0.0
		if reason != "" {
			scored.Annotate(MetaVerificationReason, reason)
		}
		return scored
	}

	for i := range scored.SubAssertions {
		sub := &scored.SubAssertions[i]
		switch sub.Kind {
		case model.KindWho, model.KindWhat, model.KindWhere:
			// The search was anchored on these and a match was found.
			sub.Confidence = 1.0
		default:
			if c, ok := scorer.Score(sub.Kind, *sub, evidence); ok {
				sub.Confidence = c
			} else {
				sub.Confidence = uncorroboratedConfidence
			}
		}
	}

	scored.OverallConfidence = meanConfidence(scored.SubAssertions)
	return scored
}

// meanConfidence averages over the sub-assertions present on the claim, not
// over the full kind schema.
func meanConfidence(subs []model.SubAssertion) float64 {
	if len(subs) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range subs {
		sum += s.Confidence
	}
	return sum / float64(len(subs))
}
