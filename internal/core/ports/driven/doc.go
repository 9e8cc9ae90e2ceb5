// Package driven defines interfaces for infrastructure the core depends
// on (secondary/outbound ports): storage, embeddings, dense and sparse
// indexes, HTTP fetching and configuration.
//
// Implementations live under internal/adapters/driven.
package driven
