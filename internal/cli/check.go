package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/veridex/internal/model"
	"github.com/spf13/cobra"
)

var (
	imagePath    string
	platform     string
	checkTimeout time.Duration
	noCache      bool
	outJSON      string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim text>",
	Short: "Fact-check a single claim",
	Long: `Check decomposes the input into verifiable claims and searches
social, news, and government sources for corroboration:
- Extract claims and their who/what/where sub-assertions
- Search sources in priority order, stopping at the first match
- Aggregate per-assertion confidence into a verdict with citations

Example:
  veridex check "PMC initiated AI skill development training"
  veridex check "PMC initiated AI training" --image screenshot.png
  veridex check "the mayor signed the order" --platform whatsapp --json result.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&imagePath, "image", "", "screenshot or image to extract claims from")
	checkCmd.Flags().StringVar(&platform, "platform", "", "originating platform hint (e.g. whatsapp, twitter)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall fact-check timeout")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh verification)")
	checkCmd.Flags().StringVar(&outJSON, "json", "", "write the full response as JSON to this path")
}

func runCheck(cmd *cobra.Command, args []string) error {
	req := &model.Request{SourcePlatform: platform}
	if len(args) == 1 {
		req.ClaimText = args[0]
	}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		req.ImageData = data
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig()
	cfg.Cache.Enabled = !noCache

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	resp := p.Check(ctx, req)

	if outJSON != "" {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		if err := os.WriteFile(outJSON, data, 0644); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	printResponse(resp)

	if resp.Verdict == model.VerdictErrored {
		return fmt.Errorf("fact-check failed in stage %s: %s", resp.ErrorContext.Stage, resp.ErrorContext.Message)
	}
	return nil
}

// printResponse renders the human-readable summary to stdout.
func printResponse(resp *model.Response) {
	fmt.Printf("Verdict:    %s\n", resp.Verdict)
	fmt.Printf("Confidence: %.2f\n", resp.Confidence)
	if resp.Cached {
		fmt.Printf("Cached:     yes\n")
	}
	fmt.Printf("Elapsed:    %.0f ms\n", resp.ProcessingTimeMS)

	if resp.Explanation != "" {
		fmt.Printf("\n%s\n", resp.Explanation)
	}

	for i, claim := range resp.Claims {
		fmt.Printf("\nClaim %d: %s (%.2f)\n", i+1, claim.Text, claim.OverallConfidence)
		for _, sub := range claim.SubAssertions {
			fmt.Printf("  %-8s %.2f  %s\n", sub.Kind, sub.Confidence, sub.Text)
		}
	}

	if len(resp.References) > 0 {
		fmt.Printf("\nReferences:\n")
		for _, ref := range resp.References {
			fmt.Printf("  - %s\n    %s\n", ref.Title, ref.URL)
		}
	}
}
