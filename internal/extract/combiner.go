package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
)

// MergeCombiner merges extraction candidates deterministically: claim texts
// are joined, and for each sub-assertion kind the first candidate's entry
// wins (candidates are ordered by extraction path, text before image).
type MergeCombiner struct{}

// NewMergeCombiner creates the default combiner.
func NewMergeCombiner() *MergeCombiner {
	return &MergeCombiner{}
}

// Combine merges candidates into one claim.
func (c *MergeCombiner) Combine(ctx context.Context, claims []*model.Claim) (*model.Claim, error) {
	if len(claims) == 0 {
		return nil, fmt.Errorf("no claims to combine")
	}
	if len(claims) == 1 {
		return claims[0], nil
	}

	var texts []string
	var subs []model.SubAssertion
	seenKind := make(map[model.AssertionKind]bool)
	provenance := claims[0].ExtractedFrom
	confidence := claims[0].ExtractConfidence

	for _, claim := range claims {
		if t := strings.TrimSpace(claim.Text); t != "" {
			texts = append(texts, t)
		}
		for _, sub := range claim.SubAssertions {
			if seenKind[sub.Kind] {
				continue
			}
			seenKind[sub.Kind] = true
			subs = append(subs, sub)
		}
		if claim.ExtractedFrom != provenance {
			provenance = model.ProvenanceHybrid
		}
		if claim.ExtractConfidence < confidence {
			// The combined claim is only as trustworthy as its weakest part.
			confidence = claim.ExtractConfidence
		}
	}

	return &model.Claim{
		Text:              strings.Join(texts, " "),
		SubAssertions:     subs,
		ExtractedFrom:     provenance,
		ExtractConfidence: confidence,
	}, nil
}
