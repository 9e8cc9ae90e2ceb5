package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
)

var (
	ingestProject   string
	ingestReset     bool
	ingestChunkSize int
	ingestOverlap   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a local file into a project",
	Long: `Reads a local text file, splits it into chunks, and indexes the
chunks into the project's dense and sparse indexes. Re-ingesting the
same file adds a new asset; use --reset to replace the project's
content instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "default", "project to ingest into")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "drop the project's existing content first")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size in bytes (0 = configured default)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", -1, "overlap between chunks in bytes (-1 = configured default)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if projectStore == nil || assetStore == nil {
		return errors.New("metadata store not configured")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	ctx := context.Background()
	project, err := projectStore.GetOrCreate(ctx, ingestProject)
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}

	name := filepath.Base(path)
	assetID, err := assetStore.Insert(ctx, &domain.Asset{
		ProjectID: project.ID,
		Type:      domain.AssetTypeFile,
		Name:      name,
		Size:      int64(len(content)),
	})
	if err != nil {
		return fmt.Errorf("registering asset: %w", err)
	}

	meta := domain.Metadata{
		domain.MetaSource: name,
		domain.MetaTitle:  strings.TrimSuffix(name, filepath.Ext(name)),
	}
	if d := inferDomain(name); d != "" {
		meta[domain.MetaDomain] = d
	}

	cmd.Printf("Ingesting %s into project %s...\n", name, project.Name)
	result, err := ingestService.IngestSegments(ctx, project.ID, assetID,
		[]driving.Segment{{Text: string(content), Metadata: meta}},
		driving.IngestOptions{
			ChunkSize: ingestChunkSize,
			Overlap:   ingestOverlap,
			Reset:     ingestReset,
		})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Stored %d chunks (%d embedded).\n", result.InsertedChunks, result.EmbeddedChunks)
	if result.EmbeddedChunks < result.InsertedChunks {
		cmd.Println("Some chunks were not embedded; configure an embedding provider and re-ingest to enable semantic search.")
	}
	return nil
}

// inferDomain derives a coarse topic tag from the file name so chunks
// can be filtered or explained by subject later.
func inferDomain(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range []string{"prescription", "api", "guide", "tutorial", "reference", "faq", "changelog"} {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}
