// Package sqlite provides a unified SQLite-based implementation of the
// metadata store interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements multiple
// store interfaces through a single database connection:
//
//   - ProjectStore: project persistence
//   - AssetStore: asset persistence
//   - ChunkStore: chunk persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Deletes cascade from projects to assets to chunks
// via foreign keys.
//
// # Data Location
//
// By default, the database is stored at ~/.quarry/data/metadata.db
package sqlite
