package cli

import (
	"fmt"

	"github.com/ppiankov/veridex/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered verification sources",
	Long: `List every registered source with its search order and whether the
current configuration can actually query it. Sources with a negative
priority are registered but excluded from the search order.`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	searchers := buildSearchers(cfg, zap.NewNop())
	registry := source.Default()

	order := registry.DefaultOrder()
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i + 1
	}

	fmt.Printf("%-12s %-10s %-6s %s\n", "SOURCE", "CATEGORY", "ORDER", "STATUS")
	for _, d := range registry.All() {
		pos := "-"
		if p, ok := position[d.ID]; ok {
			pos = fmt.Sprintf("%d", p)
		}
		status := "not configured"
		if _, ok := searchers[d.ID]; ok {
			status = "ready"
		}
		fmt.Printf("%-12s %-10s %-6s %s\n", d.ID, d.Category, pos, status)
	}
	return nil
}
