package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.quarry/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".quarry", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Projects returns a ProjectStore interface backed by this store.
func (s *Store) Projects() driven.ProjectStore {
	return &projectStore{store: s}
}

// Assets returns an AssetStore interface backed by this store.
func (s *Store) Assets() driven.AssetStore {
	return &assetStore{store: s}
}

// Chunks returns a ChunkStore interface backed by this store.
func (s *Store) Chunks() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Project Store ====================

// projectStore implements driven.ProjectStore.
type projectStore struct {
	store *Store
}

var _ driven.ProjectStore = (*projectStore)(nil)

// GetOrCreate returns the project with the given name, creating it on
// first reference.
func (s *projectStore) GetOrCreate(ctx context.Context, name string) (*domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO projects (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM projects WHERE name = ?
	`, name)
	return scanProject(row)
}

// Get retrieves a project by ID.
func (s *projectStore) Get(ctx context.Context, id int64) (*domain.Project, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM projects WHERE id = ?
	`, id)
	return scanProject(row)
}

// List returns all projects ordered by ID.
func (s *projectStore) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM projects ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Project
		var createdAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		if createdAt.Valid {
			p.CreatedAt = createdAt.Time
		}
		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	return projects, nil
}

// Delete removes a project. Assets and chunks cascade.
func (s *projectStore) Delete(ctx context.Context, id int64) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

// ==================== Asset Store ====================

// assetStore implements driven.AssetStore.
type assetStore struct {
	store *Store
}

var _ driven.AssetStore = (*assetStore)(nil)

// Insert stores an asset and returns its assigned ID.
func (s *assetStore) Insert(ctx context.Context, asset *domain.Asset) (int64, error) {
	if !asset.Type.Valid() {
		return 0, domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO assets (project_id, type, name, size)
		VALUES (?, ?, ?, ?)
	`, asset.ProjectID, string(asset.Type), asset.Name, asset.Size)
	if err != nil {
		return 0, fmt.Errorf("inserting asset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting asset id: %w", err)
	}
	asset.ID = id
	return id, nil
}

// Get retrieves an asset by ID.
func (s *assetStore) Get(ctx context.Context, id int64) (*domain.Asset, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, type, name, size, created_at
		FROM assets WHERE id = ?
	`, id)
	return scanAsset(row)
}

// GetByName retrieves a project's asset by name.
func (s *assetStore) GetByName(ctx context.Context, projectID int64, name string) (*domain.Asset, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, type, name, size, created_at
		FROM assets WHERE project_id = ? AND name = ?
		ORDER BY id LIMIT 1
	`, projectID, name)
	return scanAsset(row)
}

// ListByProject returns a project's assets ordered by ID.
func (s *assetStore) ListByProject(ctx context.Context, projectID int64) ([]*domain.Asset, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, type, name, size, created_at
		FROM assets WHERE project_id = ? ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.Asset //nolint:prealloc // size unknown from query
	for rows.Next() {
		asset, err := scanAssetRows(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}

	return assets, nil
}

// Delete removes an asset. Its chunks cascade.
func (s *assetStore) Delete(ctx context.Context, id int64) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// InsertChunks stores chunks in order and returns their assigned IDs.
func (s *chunkStore) InsertChunks(ctx context.Context, chunks []*domain.Chunk) ([]int64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (project_id, asset_id, position, text, metadata)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(chunks))
	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		res, err := stmt.ExecContext(ctx, chunk.ProjectID, chunk.AssetID,
			chunk.Order, chunk.Text, string(metadataJSON))
		if err != nil {
			return nil, fmt.Errorf("inserting chunk: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting chunk id: %w", err)
		}
		chunk.ID = id
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}

// ChunksByIDs returns the chunks for the given IDs, in the given order.
// Missing IDs are omitted.
func (s *chunkStore) ChunksByIDs(ctx context.Context, ids []int64) ([]*domain.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, asset_id, position, text, metadata
		FROM chunks WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Chunk, len(ids))
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[chunk.ID] = chunk
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	chunks := make([]*domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// ListByProject returns a page of a project's chunks ordered by ID.
func (s *chunkStore) ListByProject(ctx context.Context, projectID int64, offset, limit int) ([]*domain.Chunk, error) {
	// SQLite requires a LIMIT clause before OFFSET; -1 means unlimited.
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, asset_id, position, text, metadata
		FROM chunks WHERE project_id = ?
		ORDER BY id LIMIT ? OFFSET ?
	`, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// CountByProject returns the number of chunks in a project.
func (s *chunkStore) CountByProject(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE project_id = ?", projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteByAsset removes an asset's chunks and returns their IDs.
func (s *chunkStore) DeleteByAsset(ctx context.Context, assetID int64) ([]int64, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM chunks WHERE asset_id = ? ORDER BY id", assetID)
	if err != nil {
		return nil, fmt.Errorf("querying chunk ids: %w", err)
	}

	var ids []int64 //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating chunk ids: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE asset_id = ?", assetID); err != nil {
		return nil, fmt.Errorf("deleting chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}

// DeleteByProject removes all chunks in a project.
func (s *chunkStore) DeleteByProject(ctx context.Context, projectID int64) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanProject scans a single project row.
func scanProject(row *sql.Row) (*domain.Project, error) {
	var p domain.Project
	var createdAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	return &p, nil
}

// scanAsset scans a single asset row.
func scanAsset(row *sql.Row) (*domain.Asset, error) {
	var a domain.Asset
	var assetType string
	var createdAt sql.NullTime
	if err := row.Scan(&a.ID, &a.ProjectID, &assetType, &a.Name, &a.Size, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning asset: %w", err)
	}
	a.Type = domain.AssetType(assetType)
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return &a, nil
}

// scanAssetRows scans an asset from *sql.Rows.
func scanAssetRows(rows *sql.Rows) (*domain.Asset, error) {
	var a domain.Asset
	var assetType string
	var createdAt sql.NullTime
	if err := rows.Scan(&a.ID, &a.ProjectID, &assetType, &a.Name, &a.Size, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning asset: %w", err)
	}
	a.Type = domain.AssetType(assetType)
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return &a, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var metadataJSON string
	if err := rows.Scan(&chunk.ID, &chunk.ProjectID, &chunk.AssetID,
		&chunk.Order, &chunk.Text, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}
