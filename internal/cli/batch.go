package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ppiankov/veridex/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check multiple claims from a file in parallel",
	Long: `Batch fact-checks multiple claims concurrently:
- Read claims from input file (one per line, # for comments)
- Process claims in parallel with configurable worker count
- Each claim's source search stays sequential with early stop
- Write one JSON response per claim

Example:
  veridex batch claims.txt
  veridex batch claims.txt --concurrency 10 --output-dir ./results
  veridex batch claims.txt --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./veridex-results", "output directory for responses")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh verification)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Concurrency.BatchWorkers = concurrency

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading claims from %s...\n", file)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0

	for i, result := range results {
		if err := result.GetError(); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		} else {
			successCount++
			fmt.Fprintf(os.Stderr, "✓ %s: %s (%.2f)\n",
				result.Request.ClaimText, result.Response.Verdict, result.Response.Confidence)
		}

		data, err := json.MarshalIndent(result.Response, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ marshal response: %v\n", err)
			continue
		}
		path := filepath.Join(outputDir, fmt.Sprintf("claim-%03d.json", i+1))
		if err := os.WriteFile(path, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "✗ write %s: %v\n", path, err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)

	return nil
}
