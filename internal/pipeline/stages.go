package pipeline

import (
	"context"
	"time"

	"github.com/ppiankov/veridex/internal/errctx"
	"github.com/ppiankov/veridex/internal/model"
	"go.uber.org/zap"
)

// Stage names, recorded in StageTimings and in ErrorContext.Stage.
const (
	StageCacheLookup        = "CacheLookup"
	StageClaimExtraction    = "ClaimExtraction"
	StageClaimCombination   = "ClaimCombination"
	StageParameterBuilding  = "ParameterBuilding"
	StageSourceVerification = "SourceVerification"
	StageResponseAssembly   = "ResponseAssembly"
	StageCacheWrite         = "CacheWrite"
)

// run is the per-request execution state: the trace-scoped logger and the
// stage timing table. One run per Check call, never shared.
type run struct {
	logger  *zap.Logger
	timings map[string]float64
	started time.Time
}

func newRun(logger *zap.Logger, requestID string) *run {
	return &run{
		logger:  logger.With(zap.String("request_id", requestID)),
		timings: make(map[string]float64),
		started: time.Now(),
	}
}

// runStage executes one stage under the shared middleware: start/finish
// logging, duration recording, panic recovery, and error capture. A non-nil
// return means the stage failed and the pipeline must short-circuit to the
// error response; the ErrorContext is built exactly once, here.
func (r *run) runStage(ctx context.Context, stage, operation string, inputs map[string]interface{}, fn func(context.Context) error) *model.ErrorContext {
	r.logger.Debug("stage start", zap.String("stage", stage))
	stageStart := time.Now()

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = &errctx.PanicError{Value: rec}
			}
		}()
		return fn(ctx)
	}()

	elapsed := time.Since(stageStart)
	r.timings[stage] = float64(elapsed.Microseconds()) / 1000.0

	if err != nil {
		r.logger.Warn("stage failed",
			zap.String("stage", stage),
			zap.String("operation", operation),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return errctx.Capture(stage, operation, inputs, err)
	}

	r.logger.Debug("stage finished",
		zap.String("stage", stage),
		zap.Duration("elapsed", elapsed))
	return nil
}

// elapsedMS reports total wall time since the run began.
func (r *run) elapsedMS() float64 {
	return float64(time.Since(r.started).Microseconds()) / 1000.0
}
