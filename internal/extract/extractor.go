// Package extract holds the claim-extraction collaborators: turning raw
// request input (text and/or image) into decomposed claims, and combining
// multiple extraction candidates into a single claim for verification.
package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
)

// Extractor decomposes a request into one or more claims. May fail; the
// pipeline wraps failures into the terminal response.
type Extractor interface {
	Extract(ctx context.Context, req *model.Request) ([]*model.Claim, error)
}

// Combiner merges multiple extraction candidates (e.g. text and image paths)
// into a single claim before verification.
type Combiner interface {
	Combine(ctx context.Context, claims []*model.Claim) (*model.Claim, error)
}

// claimPayload is the JSON shape the extraction model is asked to return.
type claimPayload struct {
	Claims []struct {
		ClaimText     string  `json:"claim_text"`
		Confidence    float64 `json:"confidence"`
		SubAssertions []struct {
			Kind   string `json:"kind"`
			Text   string `json:"text"`
			Entity string `json:"entity,omitempty"`
		} `json:"sub_assertions"`
	} `json:"claims"`
}

// validKinds is the closed sub-assertion kind set.
var validKinds = map[string]model.AssertionKind{
	"who":      model.KindWho,
	"what":     model.KindWhat,
	"where":    model.KindWhere,
	"when":     model.KindWhen,
	"how":      model.KindHow,
	"why":      model.KindWhy,
	"platform": model.KindPlatform,
}

// claimsFromPayload maps a parsed model response onto domain claims.
// Sub-assertion confidences are forced to zero: they are unset until
// verification runs, whatever the extraction model claims.
func claimsFromPayload(payload claimPayload, provenance model.ClaimProvenance) []*model.Claim {
	out := make([]*model.Claim, 0, len(payload.Claims))
	for _, c := range payload.Claims {
		if strings.TrimSpace(c.ClaimText) == "" {
			continue
		}
		claim := &model.Claim{
			Text:              strings.TrimSpace(c.ClaimText),
			ExtractedFrom:     provenance,
			ExtractConfidence: c.Confidence,
		}
		for _, sub := range c.SubAssertions {
			kind, ok := validKinds[strings.ToLower(strings.TrimSpace(sub.Kind))]
			if !ok || strings.TrimSpace(sub.Text) == "" {
				continue
			}
			claim.SubAssertions = append(claim.SubAssertions, model.SubAssertion{
				Kind:       kind,
				Text:       strings.TrimSpace(sub.Text),
				Entity:     strings.TrimSpace(sub.Entity),
				Confidence: 0.0,
			})
		}
		out = append(out, claim)
	}
	return out
}

// provenanceFor reports where a request's claims were extracted from.
func provenanceFor(req *model.Request) model.ClaimProvenance {
	hasText := strings.TrimSpace(req.ClaimText) != ""
	hasImage := len(req.ImageData) > 0
	switch {
	case hasText && hasImage:
		return model.ProvenanceHybrid
	case hasImage:
		return model.ProvenanceImage
	default:
		return model.ProvenanceText
	}
}
