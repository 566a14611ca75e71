package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/veridex/internal/model"
)

// Checker runs one fact-check request to completion. Implementations always
// return a response, folding failures into it rather than erroring out.
type Checker interface {
	Check(ctx context.Context, req *model.Request) *model.Response
}

// CheckJob is one fact-check request queued on the pool
type CheckJob struct {
	Request *model.Request
	Checker Checker
}

// Execute runs the fact-check
func (j *CheckJob) Execute(ctx context.Context) Result {
	return &CheckResult{
		Request:  j.Request,
		Response: j.Checker.Check(ctx, j.Request),
	}
}

// CheckResult pairs a request with its terminal response
type CheckResult struct {
	Request  *model.Request
	Response *model.Response
}

// GetError surfaces an errored verdict as an error so pool consumers can
// count failures without inspecting the response.
func (r *CheckResult) GetError() error {
	if r.Response != nil && r.Response.Verdict == model.VerdictErrored {
		msg := "fact-check failed"
		if r.Response.ErrorContext != nil {
			msg = r.Response.ErrorContext.Message
		}
		return fmt.Errorf("%s: %s", r.Request.ClaimText, msg)
	}
	return nil
}

// BatchProcessor fact-checks multiple claims concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessRequests fact-checks the given requests concurrently. Result order
// follows completion, not submission.
func (b *BatchProcessor) ProcessRequests(ctx context.Context, reqs []*model.Request) []*CheckResult {
	if len(reqs) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, req := range reqs {
		pool.Submit(&CheckJob{
			Request: req,
			Checker: b.checker,
		})
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		checkResults[i] = result.(*CheckResult)
	}

	return checkResults
}

// ProcessFile reads claims from a file and fact-checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	reqs := make([]*model.Request, len(claims))
	for i, claim := range claims {
		reqs[i] = &model.Request{ClaimText: claim}
	}

	return b.ProcessRequests(ctx, reqs), nil
}

// ReadClaimsFromFile reads claim texts from a file (one per line)
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate claims
		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
