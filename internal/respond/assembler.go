// Package respond turns verification outcomes into the user-facing response:
// verdict derivation, confidence aggregation, citation assembly, and the
// natural-language explanation.
package respond

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/verify"
	"go.uber.org/zap"
)

// Assembler builds the terminal response for a request from its verification
// outcomes. Implementations must not fail on empty outcomes; the pipeline
// relies on always getting a response back when outcomes exist.
type Assembler interface {
	Assemble(ctx context.Context, req *model.Request, outcomes []verify.Outcome) (*model.Response, error)
}

// DeriveVerdict maps a set of claim outcomes onto a single verdict.
// Every claim corroborated reads authentic; none corroborated reads
// not_authentic when sources were actually searched and unclear when nothing
// could anchor a search; anything in between is mixed.
func DeriveVerdict(outcomes []verify.Outcome) model.Verdict {
	if len(outcomes) == 0 {
		return model.VerdictUnclear
	}

	matched := 0
	consulted := 0
	for _, o := range outcomes {
		if o.Matched {
			matched++
		}
		consulted += len(o.SourcesConsulted)
	}

	switch {
	case matched == len(outcomes):
		return model.VerdictAuthentic
	case matched > 0:
		return model.VerdictMixed
	case consulted > 0:
		return model.VerdictNotAuthentic
	default:
		return model.VerdictUnclear
	}
}

// aggregateConfidence averages the per-claim overall confidences.
func aggregateConfidence(outcomes []verify.Outcome) float64 {
	if len(outcomes) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, o := range outcomes {
		sum += o.Claim.OverallConfidence
	}
	return sum / float64(len(outcomes))
}

// referencesFrom builds citations from collected evidence, one per URL.
func referencesFrom(evidence []model.EvidenceItem) []model.Reference {
	seen := make(map[string]bool, len(evidence))
	refs := make([]model.Reference, 0, len(evidence))
	for _, ev := range evidence {
		if ev.URL == "" || seen[ev.URL] {
			continue
		}
		seen[ev.URL] = true
		refs = append(refs, model.Reference{
			Title:    referenceTitle(ev),
			URL:      ev.URL,
			Snippet:  snippet(ev.Content, 200),
			SourceID: ev.SourceID,
		})
	}
	return refs
}

func referenceTitle(ev model.EvidenceItem) string {
	if t := ev.Metadata["title"]; t != "" {
		return t
	}
	if ev.Author != "" {
		return fmt.Sprintf("%s (%s)", ev.Author, ev.SourceID)
	}
	return ev.SourceID
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// TemplateAssembler builds responses without any model call. It is the
// fallback path and the complete implementation when no LLM is configured.
type TemplateAssembler struct {
	logger *zap.Logger
}

// NewTemplateAssembler creates the deterministic assembler.
func NewTemplateAssembler(logger *zap.Logger) *TemplateAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateAssembler{logger: logger}
}

// Assemble builds the response from outcomes alone.
func (a *TemplateAssembler) Assemble(ctx context.Context, req *model.Request, outcomes []verify.Outcome) (*model.Response, error) {
	resp := baseResponse(req, outcomes)
	resp.Explanation = templateExplanation(resp.Verdict, outcomes)
	return resp, nil
}

// baseResponse fills every field that does not need language generation.
func baseResponse(req *model.Request, outcomes []verify.Outcome) *model.Response {
	resp := &model.Response{
		RequestID:  req.RequestID,
		ClaimID:    uuid.NewString(),
		Verdict:    DeriveVerdict(outcomes),
		Confidence: aggregateConfidence(outcomes),
		Timestamp:  time.Now().UTC(),
	}

	var evidence []model.EvidenceItem
	for _, o := range outcomes {
		resp.Claims = append(resp.Claims, o.Claim)
		evidence = append(evidence, o.Evidence...)
		if o.Query != "" {
			resp.SearchQueries = append(resp.SearchQueries, o.Query)
		}
	}
	resp.Evidence = evidence
	resp.References = referencesFrom(evidence)
	return resp
}

// templateExplanation renders a plain one-paragraph summary of the verdict.
func templateExplanation(verdict model.Verdict, outcomes []verify.Outcome) string {
	matched := 0
	sources := make(map[string]bool)
	for _, o := range outcomes {
		if o.Matched {
			matched++
		}
		for _, id := range o.SourcesConsulted {
			sources[id] = true
		}
	}

	var b strings.Builder
	switch verdict {
	case model.VerdictAuthentic:
		fmt.Fprintf(&b, "All %d claim(s) were corroborated by external sources.", len(outcomes))
	case model.VerdictMixed:
		fmt.Fprintf(&b, "%d of %d claim(s) were corroborated by external sources; the rest could not be confirmed.", matched, len(outcomes))
	case model.VerdictNotAuthentic:
		fmt.Fprintf(&b, "None of the %d claim(s) could be corroborated by the sources searched.", len(outcomes))
	default:
		b.WriteString("The input did not contain enough detail to anchor a source search.")
	}
	if len(sources) > 0 {
		ids := make([]string, 0, len(sources))
		for id := range sources {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Fprintf(&b, " Sources consulted: %s.", strings.Join(ids, ", "))
	}
	return b.String()
}
