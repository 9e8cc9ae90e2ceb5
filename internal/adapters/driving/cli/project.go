package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects and their assets",
	Long:  `List projects, inspect their index state, reset their content, or remove individual assets.`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE:  runProjectList,
}

var projectInfoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show a project's assets and index state",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectInfo,
}

var projectResetCmd = &cobra.Command{
	Use:   "reset [name]",
	Short: "Drop a project's chunks and indexes",
	Long: `Removes all of a project's chunks, its dense collection and its
sparse index. The project itself and its asset records remain.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectReset,
}

var projectDeleteAssetCmd = &cobra.Command{
	Use:   "delete-asset [project] [asset-name]",
	Short: "Remove one asset and its indexed content",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectDeleteAsset,
}

func init() {
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectInfoCmd)
	projectCmd.AddCommand(projectResetCmd)
	projectCmd.AddCommand(projectDeleteAssetCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	projects, err := projectStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	if len(projects) == 0 {
		cmd.Println("No projects found.")
		return nil
	}

	cmd.Println("Projects:")
	for _, p := range projects {
		cmd.Printf("  [%d] %s (created %s)\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runProjectInfo(cmd *cobra.Command, args []string) error {
	if projectStore == nil || assetStore == nil {
		return errors.New("metadata store not configured")
	}

	ctx := context.Background()
	project, err := projectStore.GetOrCreate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}

	cmd.Printf("Project: %s (id %d)\n\n", project.Name, project.ID)

	assets, err := assetStore.ListByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("listing assets: %w", err)
	}
	if len(assets) == 0 {
		cmd.Println("  No assets.")
	} else {
		cmd.Println("  Assets:")
		for _, a := range assets {
			cmd.Printf("    [%d] %s (%s, %d bytes)\n", a.ID, a.Name, a.Type, a.Size)
		}
	}

	if retrievalService == nil {
		return nil
	}
	info, err := retrievalService.IndexInfo(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("reading index state: %w", err)
	}

	cmd.Println("\n  Index:")
	cmd.Printf("    Chunks:        %d\n", info.ChunkCount)
	cmd.Printf("    Sparse index:  %v\n", info.SparseIndexed)
	if info.VectorSize > 0 {
		cmd.Printf("    Collection:    %s\n", info.CollectionName)
		cmd.Printf("    Dense points:  %d\n", info.PointsCount)
	} else {
		cmd.Println("    Dense index:   unavailable (no embedding provider configured)")
	}
	return nil
}

func runProjectReset(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	ctx := context.Background()
	project, err := projectStore.GetOrCreate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}

	if err := ingestService.ResetProject(ctx, project.ID); err != nil {
		if errors.Is(err, domain.ErrIngestInProgress) {
			return fmt.Errorf("project %s has an ingestion running; retry when it finishes", project.Name)
		}
		return fmt.Errorf("reset failed: %w", err)
	}

	cmd.Printf("Project %s reset.\n", project.Name)
	return nil
}

func runProjectDeleteAsset(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if projectStore == nil || assetStore == nil {
		return errors.New("metadata store not configured")
	}

	ctx := context.Background()
	project, err := projectStore.GetOrCreate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}

	asset, err := assetStore.GetByName(ctx, project.ID, args[1])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no asset named %s in project %s", args[1], project.Name)
		}
		return fmt.Errorf("looking up asset: %w", err)
	}

	if err := ingestService.DeleteAsset(ctx, project.ID, asset.ID); err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}

	cmd.Printf("Asset %s removed from project %s.\n", asset.Name, project.Name)
	return nil
}
