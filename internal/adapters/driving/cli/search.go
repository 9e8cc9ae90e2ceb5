package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

var (
	searchProject string
	searchLimit   int
	searchAlpha   float64
	searchDense   bool
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search an indexed project",
	Long: `Performs hybrid search over a project's indexed content.
Combines semantic (dense vector) and keyword (BM25) retrieval; sparse
scores are fused into the dense ranking weighted by alpha.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "default", "project to search")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchAlpha, "alpha", 0, "dense weight for hybrid fusion in (0, 1]; 0 = configured default")
	searchCmd.Flags().BoolVar(&searchDense, "dense-only", false, "skip sparse fusion and rank by dense similarity only")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("search service not configured")
	}
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	ctx := context.Background()
	project, err := projectStore.GetOrCreate(ctx, searchProject)
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}

	hybrid := settingsService == nil || settingsService.SearchHybrid()
	if searchDense {
		hybrid = false
	}
	opts := domain.SearchOptions{
		Limit:  searchLimit,
		Hybrid: hybrid,
		Alpha:  searchAlpha,
	}

	results, err := retrievalService.Search(ctx, project.ID, query, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNoResults) {
			cmd.Println("No results found.")
			return nil
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievedDocument) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedDocument) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title, _ := results[i].Metadata[domain.MetaTitle].(string)
		if title == "" {
			title = fmt.Sprintf("chunk %d", results[i].ChunkID)
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, results[i].Score)
		if source, ok := results[i].Metadata[domain.MetaSource].(string); ok && source != "" {
			cmd.Printf("      Source: %s\n", source)
		}
		cmd.Printf("      %s\n", snippet(results[i].Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates text to at most max runes.
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
