package verify

import (
	"context"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/search"
	"github.com/ppiankov/veridex/internal/source"
	"go.uber.org/zap"
)

// Outcome is the result of verifying one decomposed claim. Constructed once
// per Verify call and read-only afterwards; Claim is a fully-scored copy of
// the input claim, which is left untouched.
type Outcome struct {
	Claim            *model.Claim
	Matched          bool
	SourcesConsulted []string
	Evidence         []model.EvidenceItem
	Query            string
}

// Verifier runs the search-until-match state machine for one claim across an
// ordered set of sources. Safe for concurrent use: the registry and searcher
// map are read-only and each Verify call owns its claim and outcome.
type Verifier struct {
	registry  *source.Registry
	searchers map[string]search.Searcher
	detector  MatchDetector
	scorer    KindScorer
	logger    *zap.Logger
}

// NewVerifier creates a verifier over the given registry and searcher
// capability map. A nil detector falls back to the keyword matcher and a nil
// scorer to the evidence kind scorer.
func NewVerifier(registry *source.Registry, searchers map[string]search.Searcher, detector MatchDetector, scorer KindScorer, logger *zap.Logger) *Verifier {
	if detector == nil {
		detector = NewKeywordMatcher()
	}
	if scorer == nil {
		scorer = EvidenceKindScorer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		registry:  registry,
		searchers: searchers,
		detector:  detector,
		scorer:    scorer,
		logger:    logger,
	}
}

// Verify runs the full verification loop for a single claim.
//
// A claim without both a "who" and a "what" sub-assertion fast-fails to a
// zero-confidence outcome without any network calls. A "where" sub-assertion
// biases the source order toward a matching source. Iteration is sequential
// and stops at the first source whose accumulated evidence the detector
// accepts; a single source's failure is logged and skipped, never fatal.
//
// The only error returned is context cancellation; everything else is
// contained in the outcome.
func (v *Verifier) Verify(ctx context.Context, claim *model.Claim) (Outcome, error) {
	who := claim.Assertion(model.KindWho)
	what := claim.Assertion(model.KindWhat)

	if who == nil || strings.TrimSpace(who.Text) == "" ||
		what == nil || strings.TrimSpace(what.Text) == "" {
		v.logger.Info("claim missing who/what anchor, skipping search",
			zap.String("claim", claim.Text))
		return Outcome{
			Claim:            ScoreClaim(claim, nil, false, ReasonMissingWhoWhat, v.scorer),
			SourcesConsulted: []string{},
		}, nil
	}

	order := v.registry.DefaultOrder()
	params := map[string]string{
		search.ParamWho:  who.Text,
		search.ParamWhat: what.Text,
	}
	if where := claim.Assertion(model.KindWhere); where != nil && strings.TrimSpace(where.Text) != "" {
		order = v.registry.ReorderForHint(order, where.Text)
		params[search.ParamWhere] = where.Text
	}

	query := buildQuery(who.Text, what.Text)

	var (
		evidence  []model.EvidenceItem
		consulted = make([]string, 0, len(order))
		matched   bool
	)

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		searcher, ok := v.searchers[id]
		if !ok {
			v.logger.Warn("no searcher capability for source", zap.String("source", id))
			continue
		}

		consulted = append(consulted, id)

		results, err := searcher.Search(ctx, query, params)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			// One source failing must never abort the claim.
			v.logger.Warn("source search failed, continuing with next source",
				zap.String("source", id),
				zap.Error(err))
			continue
		}
		evidence = append(evidence, results...)

		if v.detector.Matches(claim.SubAssertions, evidence) {
			v.logger.Info("match found, stopping source iteration",
				zap.String("source", id),
				zap.Int("sources_consulted", len(consulted)),
				zap.Int("evidence", len(evidence)))
			matched = true
			break
		}
	}

	reason := ""
	if !matched {
		reason = ReasonNoSourceMatch
	}

	return Outcome{
		Claim:            ScoreClaim(claim, evidence, matched, reason, v.scorer),
		Matched:          matched,
		SourcesConsulted: consulted,
		Evidence:         evidence,
		Query:            query,
	}, nil
}

// buildQuery concatenates the who and what anchors. Kept behind one function
// so richer query construction can swap in without touching the loop.
func buildQuery(who, what string) string {
	return strings.TrimSpace(strings.TrimSpace(who) + " " + strings.TrimSpace(what))
}
