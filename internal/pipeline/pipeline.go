// Package pipeline orchestrates one fact-check request through its stages:
// cache lookup, claim extraction, combination, parameter building, source
// verification, response assembly, and cache write. The orchestrator's job is
// sequencing, timing, and failure containment; it never retries and it never
// lets an error or panic escape to the caller.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/veridex/internal/cache"
	"github.com/ppiankov/veridex/internal/extract"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/respond"
	"github.com/ppiankov/veridex/internal/verify"
	"github.com/ppiankov/veridex/internal/worker"
	"go.uber.org/zap"
)

// ClaimVerifier verifies one decomposed claim against external sources.
type ClaimVerifier interface {
	Verify(ctx context.Context, claim *model.Claim) (verify.Outcome, error)
}

// Pipeline runs fact-check requests to terminal responses. Safe for
// concurrent use: all fields are read-only after construction and each Check
// call owns its run state.
type Pipeline struct {
	extractor    extract.Extractor
	combiner     extract.Combiner
	verifier     ClaimVerifier
	assembler    respond.Assembler
	store        cache.Cache // nil disables the cache stages
	cacheTTL     time.Duration
	claimWorkers int
	logger       *zap.Logger
}

// New creates a pipeline over the given collaborators. A nil store disables
// both cache stages; a nil logger falls back to a no-op one.
func New(extractor extract.Extractor, combiner extract.Combiner, verifier ClaimVerifier, assembler respond.Assembler, store cache.Cache, cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Concurrency.ClaimWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		extractor:    extractor,
		combiner:     combiner,
		verifier:     verifier,
		assembler:    assembler,
		store:        store,
		cacheTTL:     cfg.Cache.DiskTTL,
		claimWorkers: workers,
		logger:       logger,
	}
}

// Check runs one request through the full stage sequence. It always returns
// a well-formed response: on any stage failure the verdict is errored and the
// error context carries the sanitized diagnostics. The trace id is taken from
// the request or generated once, and never changes mid-run.
func (p *Pipeline) Check(ctx context.Context, req *model.Request) *model.Response {
	traced := *req
	if strings.TrimSpace(traced.RequestID) == "" {
		traced.RequestID = uuid.NewString()
	}
	req = &traced

	r := newRun(p.logger, req.RequestID)

	// CacheLookup: a hit short-circuits straight to success, timing recorded.
	var cacheKey string
	if p.store != nil {
		cacheKey = cache.RequestKey(req)
		var cached *model.Response
		if ec := r.runStage(ctx, StageCacheLookup, "cache_get", nil, func(ctx context.Context) error {
			data, found := p.store.Get(cacheKey)
			if !found {
				return nil
			}
			var resp model.Response
			if err := json.Unmarshal(data, &resp); err != nil {
				// Corrupt entry: drop it and treat the lookup as a miss.
				_ = p.store.Delete(cacheKey)
				return nil
			}
			cached = &resp
			return nil
		}); ec != nil {
			return p.errorResponse(req, r, ec)
		}
		if cached != nil {
			r.logger.Info("cache hit", zap.String("verdict", string(cached.Verdict)))
			cached.RequestID = req.RequestID
			cached.Cached = true
			cached.StageTimings = r.timings
			cached.ProcessingTimeMS = r.elapsedMS()
			return cached
		}
	}

	// ClaimExtraction.
	var claims []*model.Claim
	if ec := r.runStage(ctx, StageClaimExtraction, "extract", map[string]interface{}{
		"claim_text":      req.ClaimText,
		"image_data":      req.ImageData,
		"source_platform": req.SourcePlatform,
	}, func(ctx context.Context) error {
		var err error
		claims, err = p.extractor.Extract(ctx, req)
		return err
	}); ec != nil {
		return p.errorResponse(req, r, ec)
	}

	// ClaimCombination: merge extraction candidates that describe the same
	// claim (same who/what anchors, e.g. one from text and one from image).
	// Distinct claims stay separate and are verified independently.
	if len(claims) > 1 && p.combiner != nil {
		if ec := r.runStage(ctx, StageClaimCombination, "combine", nil, func(ctx context.Context) error {
			var err error
			claims, err = combineDuplicates(ctx, p.combiner, claims)
			return err
		}); ec != nil {
			return p.errorResponse(req, r, ec)
		}
	}

	// ParameterBuilding: assemble the verification worklist.
	var jobs []*model.Claim
	if ec := r.runStage(ctx, StageParameterBuilding, "build_params", nil, func(ctx context.Context) error {
		if len(claims) == 0 {
			return fmt.Errorf("no claims to verify")
		}
		anchored := 0
		for _, c := range claims {
			if c.Assertion(model.KindWho) != nil && c.Assertion(model.KindWhat) != nil {
				anchored++
			}
		}
		r.logger.Debug("verification worklist built",
			zap.Int("claims", len(claims)),
			zap.Int("anchored", anchored))
		jobs = claims
		return nil
	}); ec != nil {
		return p.errorResponse(req, r, ec)
	}

	// SourceVerification: independent claims fan out over the worker pool;
	// search inside each claim stays sequential.
	outcomes := make([]verify.Outcome, len(jobs))
	if ec := r.runStage(ctx, StageSourceVerification, "verify", map[string]interface{}{
		"claims": len(jobs),
	}, func(ctx context.Context) error {
		return p.verifyAll(ctx, jobs, outcomes)
	}); ec != nil {
		return p.errorResponse(req, r, ec)
	}

	// ResponseAssembly.
	var resp *model.Response
	if ec := r.runStage(ctx, StageResponseAssembly, "assemble", nil, func(ctx context.Context) error {
		var err error
		resp, err = p.assembler.Assemble(ctx, req, outcomes)
		return err
	}); ec != nil {
		return p.errorResponse(req, r, ec)
	}

	// CacheWrite: a failed write is logged, never fatal this late.
	if p.store != nil {
		if ec := r.runStage(ctx, StageCacheWrite, "cache_set", nil, func(ctx context.Context) error {
			data, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			return p.store.Set(cacheKey, data, p.cacheTTL)
		}); ec != nil {
			r.logger.Warn("cache write failed, serving uncached response",
				zap.String("kind", ec.Kind))
		}
	}

	resp.RequestID = req.RequestID
	resp.Cached = false
	resp.StageTimings = r.timings
	resp.ProcessingTimeMS = r.elapsedMS()

	r.logger.Info("fact-check complete",
		zap.String("verdict", string(resp.Verdict)),
		zap.Float64("confidence", resp.Confidence),
		zap.Int("claims", len(resp.Claims)))
	return resp
}

// verifyAll fills outcomes[i] for jobs[i]. Single-claim requests skip the
// pool. The only errors surfaced are context cancellations; per-source
// trouble is contained inside the verifier.
func (p *Pipeline) verifyAll(ctx context.Context, jobs []*model.Claim, outcomes []verify.Outcome) error {
	if len(jobs) == 1 || p.claimWorkers <= 1 {
		for i, claim := range jobs {
			outcome, err := p.verifier.Verify(ctx, claim)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
		}
		return nil
	}

	pool := worker.NewPool(min(p.claimWorkers, len(jobs)))
	pool.Start()
	for i, claim := range jobs {
		pool.Submit(&verifyJob{ctx: ctx, index: i, claim: claim, verifier: p.verifier})
	}
	for _, result := range pool.Wait() {
		vr := result.(*verifyResult)
		if vr.err != nil {
			return vr.err
		}
		outcomes[vr.index] = vr.outcome
	}
	return nil
}

// verifyJob adapts one claim verification onto the worker pool. The request
// context rides on the job because the pool runs on its own lifecycle
// context.
type verifyJob struct {
	ctx      context.Context
	index    int
	claim    *model.Claim
	verifier ClaimVerifier
}

func (j *verifyJob) Execute(context.Context) worker.Result {
	outcome, err := j.verifier.Verify(j.ctx, j.claim)
	return &verifyResult{index: j.index, outcome: outcome, err: err}
}

type verifyResult struct {
	index   int
	outcome verify.Outcome
	err     error
}

func (r *verifyResult) GetError() error {
	return r.err
}

// combineDuplicates merges claims sharing the same who/what anchors through
// the combiner, preserving first-seen order. Claims missing either anchor are
// never merged.
func combineDuplicates(ctx context.Context, combiner extract.Combiner, claims []*model.Claim) ([]*model.Claim, error) {
	groups := make(map[string][]*model.Claim)
	var order []string

	for i, claim := range claims {
		key := anchorKey(claim)
		if key == "" {
			// Unanchored claims stay distinct.
			key = fmt.Sprintf("\x00%d", i)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], claim)
	}

	out := make([]*model.Claim, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		merged, err := combiner.Combine(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("combine claims: %w", err)
		}
		out = append(out, merged)
	}
	return out, nil
}

func anchorKey(claim *model.Claim) string {
	who := claim.Assertion(model.KindWho)
	what := claim.Assertion(model.KindWhat)
	if who == nil || what == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(who.Text)) + "|" + strings.ToLower(strings.TrimSpace(what.Text))
}

// errorResponse assembles the Failed terminal response from a captured
// context. This is the only path that produces an errored verdict.
func (p *Pipeline) errorResponse(req *model.Request, r *run, ec *model.ErrorContext) *model.Response {
	r.logger.Error("fact-check failed",
		zap.String("stage", ec.Stage),
		zap.String("kind", ec.Kind),
		zap.String("message", ec.Message))

	return &model.Response{
		RequestID:        req.RequestID,
		Verdict:          model.VerdictErrored,
		ErrorContext:     ec,
		StageTimings:     r.timings,
		ProcessingTimeMS: r.elapsedMS(),
		Timestamp:        time.Now().UTC(),
	}
}
