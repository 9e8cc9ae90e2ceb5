// Package mcp provides an MCP (Model Context Protocol) server adapter for Quarry.
// It lets AI assistants search a project's indexed content and inspect its index state.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// ErrMissingProjectStore is returned when the project store is not provided.
var ErrMissingProjectStore = errors.New("mcp: project store is required")
