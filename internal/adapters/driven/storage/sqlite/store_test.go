package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// createTestProject creates a project and returns its ID.
func createTestProject(t *testing.T, store *Store, name string) int64 {
	t.Helper()
	p, err := store.Projects().GetOrCreate(context.Background(), name)
	require.NoError(t, err)
	return p.ID
}

// createTestAsset creates an asset and returns its ID.
func createTestAsset(t *testing.T, store *Store, projectID int64, name string) int64 {
	t.Helper()
	id, err := store.Assets().Insert(context.Background(), &domain.Asset{
		ProjectID: projectID,
		Type:      domain.AssetTypeFile,
		Name:      name,
		Size:      123,
	})
	require.NoError(t, err)
	return id
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	// Invalid path (should fail to create directory)
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	// Verify database file was created
	dbPath := filepath.Join(tempDir, "metadata.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	// Verify database connection is working
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	tempDir := t.TempDir()

	store1, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	// Reopening runs migrate() again against an already-migrated database
	store2, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store2.Close()

	var version int
	err = store2.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

// ==================== Project Store Tests ====================

func TestProjectStore_GetOrCreate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	projects := store.Projects()

	p1, err := projects.GetOrCreate(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", p1.Name)
	assert.NotZero(t, p1.ID)
	assert.False(t, p1.CreatedAt.IsZero())

	// Second call returns the same project
	p2, err := projects.GetOrCreate(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)

	// A different name creates a different project
	p3, err := projects.GetOrCreate(ctx, "blog")
	require.NoError(t, err)
	assert.NotEqual(t, p1.ID, p3.ID)
}

func TestProjectStore_GetOrCreate_EmptyName(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Projects().GetOrCreate(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProjectStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Projects().Get(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	idA := createTestProject(t, store, "alpha")
	idB := createTestProject(t, store, "beta")

	projects, err := store.Projects().List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, idA, projects[0].ID)
	assert.Equal(t, idB, projects[1].ID)
}

func TestProjectStore_Delete_Cascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	assetID := createTestAsset(t, store, projectID, "guide.md")

	_, err := store.Chunks().InsertChunks(ctx, []*domain.Chunk{
		{ProjectID: projectID, AssetID: assetID, Order: 1, Text: "chunk one"},
		{ProjectID: projectID, AssetID: assetID, Order: 2, Text: "chunk two"},
	})
	require.NoError(t, err)

	require.NoError(t, store.Projects().Delete(ctx, projectID))

	_, err = store.Assets().Get(ctx, assetID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := store.Chunks().CountByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// ==================== Asset Store Tests ====================

func TestAssetStore_InsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")

	asset := &domain.Asset{
		ProjectID: projectID,
		Type:      domain.AssetTypeURLScrape,
		Name:      "https://example.com/docs",
	}
	id, err := store.Assets().Insert(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, id, asset.ID)

	got, err := store.Assets().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetTypeURLScrape, got.Type)
	assert.Equal(t, "https://example.com/docs", got.Name)
	assert.Equal(t, projectID, got.ProjectID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestAssetStore_Insert_InvalidType(t *testing.T) {
	store := setupTestStore(t)

	projectID := createTestProject(t, store, "docs")
	_, err := store.Assets().Insert(context.Background(), &domain.Asset{
		ProjectID: projectID,
		Type:      "bogus",
		Name:      "x",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssetStore_GetByName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectA := createTestProject(t, store, "a")
	projectB := createTestProject(t, store, "b")
	idA := createTestAsset(t, store, projectA, "shared.md")
	createTestAsset(t, store, projectB, "shared.md")

	got, err := store.Assets().GetByName(ctx, projectA, "shared.md")
	require.NoError(t, err)
	assert.Equal(t, idA, got.ID)

	_, err = store.Assets().GetByName(ctx, projectA, "missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssetStore_ListByProject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	otherID := createTestProject(t, store, "other")
	id1 := createTestAsset(t, store, projectID, "one.md")
	id2 := createTestAsset(t, store, projectID, "two.md")
	createTestAsset(t, store, otherID, "elsewhere.md")

	assets, err := store.Assets().ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, id1, assets[0].ID)
	assert.Equal(t, id2, assets[1].ID)
}

func TestAssetStore_Delete_CascadesChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	assetID := createTestAsset(t, store, projectID, "guide.md")

	_, err := store.Chunks().InsertChunks(ctx, []*domain.Chunk{
		{ProjectID: projectID, AssetID: assetID, Order: 1, Text: "chunk"},
	})
	require.NoError(t, err)

	require.NoError(t, store.Assets().Delete(ctx, assetID))

	count, err := store.Chunks().CountByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// ==================== Chunk Store Tests ====================

func TestChunkStore_InsertChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	assetID := createTestAsset(t, store, projectID, "guide.md")

	chunks := []*domain.Chunk{
		{ProjectID: projectID, AssetID: assetID, Order: 1, Text: "first",
			Metadata: domain.Metadata{domain.MetaTitle: "Guide"}},
		{ProjectID: projectID, AssetID: assetID, Order: 2, Text: "second"},
	}
	ids, err := store.Chunks().InsertChunks(ctx, chunks)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	// IDs are assigned back onto the inputs
	assert.Equal(t, ids[0], chunks[0].ID)
	assert.Equal(t, ids[1], chunks[1].ID)

	got, err := store.Chunks().ChunksByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, 1, got[0].Order)
	assert.Equal(t, "Guide", got[0].Metadata[domain.MetaTitle])
}

func TestChunkStore_InsertChunks_Empty(t *testing.T) {
	store := setupTestStore(t)

	ids, err := store.Chunks().InsertChunks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestChunkStore_ChunksByIDs_OrderAndMissing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	assetID := createTestAsset(t, store, projectID, "guide.md")

	ids, err := store.Chunks().InsertChunks(ctx, []*domain.Chunk{
		{ProjectID: projectID, AssetID: assetID, Order: 1, Text: "a"},
		{ProjectID: projectID, AssetID: assetID, Order: 2, Text: "b"},
		{ProjectID: projectID, AssetID: assetID, Order: 3, Text: "c"},
	})
	require.NoError(t, err)

	// Request in reverse, with one missing id in the middle
	got, err := store.Chunks().ChunksByIDs(ctx, []int64{ids[2], 9999, ids[0]})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Text)
	assert.Equal(t, "a", got[1].Text)
}

func TestChunkStore_ListByProject_Pagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	assetID := createTestAsset(t, store, projectID, "guide.md")

	var chunks []*domain.Chunk
	for i := 1; i <= 5; i++ {
		chunks = append(chunks, &domain.Chunk{
			ProjectID: projectID, AssetID: assetID, Order: i, Text: "chunk",
		})
	}
	_, err := store.Chunks().InsertChunks(ctx, chunks)
	require.NoError(t, err)

	page, err := store.Chunks().ListByProject(ctx, projectID, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].Order)
	assert.Equal(t, 3, page[1].Order)

	// limit <= 0 means no limit
	all, err := store.Chunks().ListByProject(ctx, projectID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestChunkStore_DeleteByAsset_ReturnsIDs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	assetA := createTestAsset(t, store, projectID, "a.md")
	assetB := createTestAsset(t, store, projectID, "b.md")

	idsA, err := store.Chunks().InsertChunks(ctx, []*domain.Chunk{
		{ProjectID: projectID, AssetID: assetA, Order: 1, Text: "a1"},
		{ProjectID: projectID, AssetID: assetA, Order: 2, Text: "a2"},
	})
	require.NoError(t, err)
	_, err = store.Chunks().InsertChunks(ctx, []*domain.Chunk{
		{ProjectID: projectID, AssetID: assetB, Order: 1, Text: "b1"},
	})
	require.NoError(t, err)

	deleted, err := store.Chunks().DeleteByAsset(ctx, assetA)
	require.NoError(t, err)
	assert.Equal(t, idsA, deleted)

	count, err := store.Chunks().CountByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChunkStore_DeleteByProject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	projectID := createTestProject(t, store, "docs")
	assetID := createTestAsset(t, store, projectID, "guide.md")

	_, err := store.Chunks().InsertChunks(ctx, []*domain.Chunk{
		{ProjectID: projectID, AssetID: assetID, Order: 1, Text: "x"},
	})
	require.NoError(t, err)

	require.NoError(t, store.Chunks().DeleteByProject(ctx, projectID))

	count, err := store.Chunks().CountByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
