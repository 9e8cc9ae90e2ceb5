package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query   string  `json:"query" jsonschema:"the search query"`
	Project string  `json:"project,omitempty" jsonschema:"project to search (default \"default\")"`
	Limit   int     `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Alpha   float64 `json:"alpha,omitempty" jsonschema:"dense weight for hybrid fusion in (0, 1]; 0 uses the configured default"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID int64   `json:"chunk_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
	Source  string  `json:"source,omitempty"`
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
}

// ProjectInfoInput is the input schema for the project_info tool.
type ProjectInfoInput struct {
	Project string `json:"project,omitempty" jsonschema:"project to inspect (default \"default\")"`
}

// ProjectInfoOutput is the output schema for the project_info tool.
type ProjectInfoOutput struct {
	Project       string `json:"project"`
	ProjectID     int64  `json:"project_id"`
	ChunkCount    int64  `json:"chunk_count"`
	SparseIndexed bool   `json:"sparse_indexed"`
	Collection    string `json:"collection,omitempty"`
	VectorSize    int    `json:"vector_size,omitempty"`
	PointsCount   uint64 `json:"points_count,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search a project's indexed content with hybrid (semantic + keyword) retrieval",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "project_info",
		Description: "Report a project's chunk count and dense/sparse index state",
	}, s.handleProjectInfo)
}

// resolveProject maps a project name to its id, creating the project on
// first reference. An empty name means the default project.
func (s *Server) resolveProject(ctx context.Context, name string) (*domain.Project, error) {
	if name == "" {
		name = "default"
	}
	project, err := s.ports.Projects.GetOrCreate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolving project %q: %w", name, err)
	}
	return project, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	project, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{Limit: limit, Hybrid: true, Alpha: input.Alpha}
	results, err := s.ports.Retrieval.Search(ctx, project.ID, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		out := SearchResultOutput{
			ChunkID: results[i].ChunkID,
			Score:   results[i].Score,
			Text:    results[i].Text,
		}
		out.Source, _ = results[i].Metadata[domain.MetaSource].(string)
		out.Title, _ = results[i].Metadata[domain.MetaTitle].(string)
		out.URL, _ = results[i].Metadata[domain.MetaURL].(string)
		output.Results[i] = out
	}

	return nil, output, nil
}

// handleProjectInfo handles the project_info tool invocation.
func (s *Server) handleProjectInfo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProjectInfoInput,
) (*mcp.CallToolResult, ProjectInfoOutput, error) {
	project, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, ProjectInfoOutput{}, err
	}

	info, err := s.ports.Retrieval.IndexInfo(ctx, project.ID)
	if err != nil {
		return nil, ProjectInfoOutput{}, err
	}

	return nil, ProjectInfoOutput{
		Project:       project.Name,
		ProjectID:     project.ID,
		ChunkCount:    info.ChunkCount,
		SparseIndexed: info.SparseIndexed,
		Collection:    info.CollectionName,
		VectorSize:    info.VectorSize,
		PointsCount:   info.PointsCount,
	}, nil
}
