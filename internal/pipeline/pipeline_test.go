package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/veridex/internal/cache"
	"github.com/ppiankov/veridex/internal/extract"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/respond"
	"github.com/ppiankov/veridex/internal/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	claims []*model.Claim
	err    error
	panics bool
}

func (s *stubExtractor) Extract(ctx context.Context, req *model.Request) ([]*model.Claim, error) {
	if s.panics {
		panic("extractor blew up")
	}
	return s.claims, s.err
}

type stubVerifier struct {
	mu      sync.Mutex
	calls   int
	matched bool
	err     error
}

func (s *stubVerifier) Verify(ctx context.Context, claim *model.Claim) (verify.Outcome, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return verify.Outcome{}, s.err
	}
	scored := claim.Clone()
	if s.matched {
		scored.OverallConfidence = 1.0
	}
	return verify.Outcome{
		Claim:            scored,
		Matched:          s.matched,
		SourcesConsulted: []string{"news"},
		Query:            claim.Text,
	}, nil
}

func anchoredClaim(text, who, what string) *model.Claim {
	return &model.Claim{
		Text: text,
		SubAssertions: []model.SubAssertion{
			{Kind: model.KindWho, Text: who},
			{Kind: model.KindWhat, Text: what},
		},
	}
}

func testPipeline(extractor extract.Extractor, verifier ClaimVerifier, store cache.Cache) *Pipeline {
	return New(extractor, extract.NewMergeCombiner(), verifier, respond.NewTemplateAssembler(nil), store, model.DefaultConfig(), nil)
}

func TestCheck_SuccessPath(t *testing.T) {
	extractor := &stubExtractor{claims: []*model.Claim{anchoredClaim("PMC initiated AI training", "PMC", "initiated AI training")}}
	p := testPipeline(extractor, &stubVerifier{matched: true}, nil)

	resp := p.Check(context.Background(), &model.Request{ClaimText: "PMC initiated AI training"})

	require.NotNil(t, resp)
	assert.Equal(t, model.VerdictAuthentic, resp.Verdict)
	assert.NotEmpty(t, resp.RequestID, "trace id is generated when the request carries none")
	assert.False(t, resp.Cached)
	assert.Nil(t, resp.ErrorContext)

	for _, stage := range []string{StageClaimExtraction, StageParameterBuilding, StageSourceVerification, StageResponseAssembly} {
		assert.Contains(t, resp.StageTimings, stage)
	}
	assert.NotContains(t, resp.StageTimings, StageCacheLookup, "cache stages skipped without a store")
}

func TestCheck_PreservesCallerTraceID(t *testing.T) {
	extractor := &stubExtractor{claims: []*model.Claim{anchoredClaim("c", "who", "what")}}
	p := testPipeline(extractor, &stubVerifier{matched: true}, nil)

	resp := p.Check(context.Background(), &model.Request{ClaimText: "c", RequestID: "trace-42"})
	assert.Equal(t, "trace-42", resp.RequestID)
}

func TestCheck_ExtractorFailureYieldsErroredResponse(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("model unavailable")}
	p := testPipeline(extractor, &stubVerifier{}, nil)

	resp := p.Check(context.Background(), &model.Request{
		ClaimText: "some claim",
		ImageData: []byte{0x89, 0x50, 0x4e, 0x47},
		RequestID: "trace-1",
	})

	require.NotNil(t, resp)
	assert.Equal(t, model.VerdictErrored, resp.Verdict)
	assert.Equal(t, "trace-1", resp.RequestID, "trace id survives the failure path")

	require.NotNil(t, resp.ErrorContext)
	assert.Equal(t, StageClaimExtraction, resp.ErrorContext.Stage)
	assert.Equal(t, "model unavailable", resp.ErrorContext.Message)
	assert.Equal(t, "[REDACTED]", resp.ErrorContext.Inputs["image_data"], "raw image bytes never reach the snapshot")
	assert.Contains(t, resp.StageTimings, StageClaimExtraction, "failed stage still times")
}

func TestCheck_CancellationIsDistinguishable(t *testing.T) {
	extractor := &stubExtractor{claims: []*model.Claim{anchoredClaim("c", "who", "what")}}
	p := testPipeline(extractor, &stubVerifier{err: context.Canceled}, nil)

	resp := p.Check(context.Background(), &model.Request{ClaimText: "c"})

	require.NotNil(t, resp.ErrorContext)
	assert.Equal(t, model.VerdictErrored, resp.Verdict)
	assert.Equal(t, StageSourceVerification, resp.ErrorContext.Stage)
	assert.Equal(t, "cancelled", resp.ErrorContext.Kind)
}

func TestCheck_PanicIsContained(t *testing.T) {
	p := testPipeline(&stubExtractor{panics: true}, &stubVerifier{}, nil)

	var resp *model.Response
	assert.NotPanics(t, func() {
		resp = p.Check(context.Background(), &model.Request{ClaimText: "c"})
	})

	require.NotNil(t, resp.ErrorContext)
	assert.Equal(t, model.VerdictErrored, resp.Verdict)
	assert.Equal(t, "panic", resp.ErrorContext.Kind)
	assert.Contains(t, resp.ErrorContext.Message, "extractor blew up")
}

func TestCheck_CacheHitShortCircuits(t *testing.T) {
	extractor := &stubExtractor{claims: []*model.Claim{anchoredClaim("c", "who", "what")}}
	verifier := &stubVerifier{matched: true}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	p := testPipeline(extractor, verifier, store)

	first := p.Check(context.Background(), &model.Request{ClaimText: "c", RequestID: "r1"})
	require.Equal(t, model.VerdictAuthentic, first.Verdict)
	require.False(t, first.Cached)
	assert.Contains(t, first.StageTimings, StageCacheWrite)

	second := p.Check(context.Background(), &model.Request{ClaimText: "c", RequestID: "r2"})
	assert.True(t, second.Cached)
	assert.Equal(t, "r2", second.RequestID, "cached response carries the new trace id")
	assert.Equal(t, model.VerdictAuthentic, second.Verdict)
	assert.Contains(t, second.StageTimings, StageCacheLookup, "hit still records timing")
	assert.NotContains(t, second.StageTimings, StageSourceVerification)

	verifier.mu.Lock()
	defer verifier.mu.Unlock()
	assert.Equal(t, 1, verifier.calls, "second request never reached verification")
}

func TestCheck_MultipleClaimsAllVerified(t *testing.T) {
	extractor := &stubExtractor{claims: []*model.Claim{
		anchoredClaim("a", "PMC", "started training"),
		anchoredClaim("b", "mayor", "signed order"),
		anchoredClaim("c", "council", "approved budget"),
	}}
	verifier := &stubVerifier{matched: true}
	p := testPipeline(extractor, verifier, nil)

	resp := p.Check(context.Background(), &model.Request{ClaimText: "three things"})

	assert.Equal(t, model.VerdictAuthentic, resp.Verdict)
	require.Len(t, resp.Claims, 3)
	verifier.mu.Lock()
	defer verifier.mu.Unlock()
	assert.Equal(t, 3, verifier.calls)
}

func TestCombineDuplicates_MergesSameAnchors(t *testing.T) {
	fromText := anchoredClaim("from text", "PMC", "started training")
	fromText.ExtractedFrom = model.ProvenanceText
	fromImage := anchoredClaim("from image", "pmc", "Started Training")
	fromImage.ExtractedFrom = model.ProvenanceImage
	distinct := anchoredClaim("other", "mayor", "signed order")

	out, err := combineDuplicates(context.Background(), extract.NewMergeCombiner(), []*model.Claim{fromText, fromImage, distinct})
	require.NoError(t, err)

	require.Len(t, out, 2, "same-anchor candidates merge, distinct claims survive")
	assert.Equal(t, model.ProvenanceHybrid, out[0].ExtractedFrom)
	assert.Same(t, distinct, out[1])
}

func TestCombineDuplicates_UnanchoredClaimsStayDistinct(t *testing.T) {
	a := &model.Claim{Text: "vague one"}
	b := &model.Claim{Text: "vague two"}

	out, err := combineDuplicates(context.Background(), extract.NewMergeCombiner(), []*model.Claim{a, b})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestCheck_NoClaimsFailsParameterBuilding(t *testing.T) {
	p := testPipeline(&stubExtractor{claims: nil}, &stubVerifier{}, nil)

	resp := p.Check(context.Background(), &model.Request{ClaimText: "c"})

	require.NotNil(t, resp.ErrorContext)
	assert.Equal(t, StageParameterBuilding, resp.ErrorContext.Stage)
}

func TestCheck_CorruptCacheEntryTreatedAsMiss(t *testing.T) {
	extractor := &stubExtractor{claims: []*model.Claim{anchoredClaim("c", "who", "what")}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	req := &model.Request{ClaimText: "c"}

	require.NoError(t, store.Set(cache.RequestKey(req), []byte("not json"), time.Minute))

	p := testPipeline(extractor, &stubVerifier{matched: true}, store)
	resp := p.Check(context.Background(), req)

	assert.Equal(t, model.VerdictAuthentic, resp.Verdict)
	assert.False(t, resp.Cached)
}

func TestVerifyJob_CarriesRequestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &verifyJob{ctx: ctx, index: 0, claim: anchoredClaim("c", "who", "what"), verifier: &ctxSensitiveVerifier{}}
	result := job.Execute(context.Background())

	assert.ErrorIs(t, result.GetError(), context.Canceled)
}

type ctxSensitiveVerifier struct{}

func (ctxSensitiveVerifier) Verify(ctx context.Context, claim *model.Claim) (verify.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return verify.Outcome{}, err
	}
	return verify.Outcome{Claim: claim, SourcesConsulted: []string{}}, nil
}

func TestErrorResponse_WellFormed(t *testing.T) {
	p := testPipeline(&stubExtractor{}, &stubVerifier{}, nil)
	r := newRun(p.logger, "trace")

	resp := p.errorResponse(&model.Request{RequestID: "trace"}, r, &model.ErrorContext{
		Stage: StageSourceVerification, Kind: "timeout", Message: "deadline exceeded",
	})

	assert.Equal(t, "trace", resp.RequestID)
	assert.Equal(t, model.VerdictErrored, resp.Verdict)
	assert.False(t, resp.Timestamp.IsZero())
	assert.GreaterOrEqual(t, resp.ProcessingTimeMS, 0.0)
}
