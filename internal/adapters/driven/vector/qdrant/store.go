// Package qdrant provides a VectorStore adapter backed by a Qdrant server.
//
// Points are keyed by chunk id so re-inserting a chunk overwrites its
// previous vector. The chunk text and a JSON-encoded metadata blob ride in
// the point payload, which lets search results be rendered without a
// second metadata lookup.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Payload keys used on every point.
const (
	payloadText     = "text"
	payloadMetadata = "metadata"
)

// Default connection values for a local Qdrant instance.
const (
	DefaultHost = "localhost"
	DefaultPort = 6334
)

// Config holds connection settings for the Qdrant gRPC API.
type Config struct {
	// Host is the Qdrant host (default: localhost).
	Host string

	// Port is the gRPC port (default: 6334).
	Port int

	// APIKey authenticates against a managed instance. Optional.
	APIKey string

	// UseTLS enables TLS for the connection.
	UseTLS bool
}

// Store is a Qdrant-backed vector store.
type Store struct {
	client *qdrant.Client
}

// NewStore connects to a Qdrant server.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connecting to %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Store{client: client}, nil
}

// CreateCollection ensures a collection with the given vector size exists.
// When reset is set an existing collection is dropped first.
func (s *Store) CreateCollection(ctx context.Context, name string, vectorSize int, reset bool) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("qdrant: checking collection %s: %w", name, err)
	}

	if exists {
		if !reset {
			return false, nil
		}
		if err := s.client.DeleteCollection(ctx, name); err != nil {
			return false, fmt.Errorf("qdrant: dropping collection %s: %w", name, err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return false, fmt.Errorf("qdrant: creating collection %s: %w", name, err)
	}
	return true, nil
}

// DeleteCollection drops a collection. Missing collections are not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: checking collection %s: %w", name, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("qdrant: deleting collection %s: %w", name, err)
	}
	return nil
}

// CollectionExists reports whether the collection is present.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("qdrant: checking collection %s: %w", name, err)
	}
	return exists, nil
}

// CollectionInfo returns backend details for diagnostics.
func (s *Store) CollectionInfo(ctx context.Context, name string) (*driven.CollectionInfo, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("qdrant: checking collection %s: %w", name, err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("qdrant: getting collection info for %s: %w", name, err)
	}

	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	return &driven.CollectionInfo{
		Name:        name,
		VectorSize:  int(size),
		PointsCount: info.GetPointsCount(),
	}, nil
}

// InsertMany upserts records. Chunk ids double as point ids, so
// re-inserting a chunk overwrites its previous vector.
func (s *Store) InsertMany(ctx context.Context, name string, texts []string, vectors [][]float32, metadata []domain.Metadata, recordIDs []int64) error {
	if len(texts) != len(vectors) || len(texts) != len(recordIDs) {
		return fmt.Errorf("qdrant: mismatched insert lengths")
	}
	if len(texts) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(texts))
	for i := range texts {
		payload := map[string]any{payloadText: texts[i]}
		if i < len(metadata) && metadata[i] != nil {
			metaJSON, err := json.Marshal(metadata[i])
			if err != nil {
				return fmt.Errorf("qdrant: marshalling metadata for record %d: %w", recordIDs[i], err)
			}
			payload[payloadMetadata] = string(metaJSON)
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(recordIDs[i])),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant: upserting %d points into %s: %w", len(points), name, err)
	}
	return nil
}

// DeleteByRecordIDs removes the points for the given chunk ids.
func (s *Store) DeleteByRecordIDs(ctx context.Context, name string, recordIDs []int64) error {
	if len(recordIDs) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, len(recordIDs))
	for i, id := range recordIDs {
		ids[i] = qdrant.NewIDNum(uint64(id))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points:         qdrant.NewPointsSelector(ids...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant: deleting %d points from %s: %w", len(recordIDs), name, err)
	}
	return nil
}

// SearchByVector returns the top-limit nearest records by cosine
// similarity, best first.
func (s *Store) SearchByVector(ctx context.Context, name string, vector []float32, limit int) ([]driven.VectorHit, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: searching %s: %w", name, err)
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, point := range results {
		hit := driven.VectorHit{
			RecordID: int64(point.GetId().GetNum()),
			Score:    float64(point.GetScore()),
		}

		payload := point.GetPayload()
		if v, ok := payload[payloadText]; ok {
			hit.Text = v.GetStringValue()
		}
		if v, ok := payload[payloadMetadata]; ok {
			if raw := v.GetStringValue(); raw != "" {
				var md domain.Metadata
				if err := json.Unmarshal([]byte(raw), &md); err != nil {
					return nil, fmt.Errorf("qdrant: unmarshalling metadata for record %d: %w", hit.RecordID, err)
				}
				hit.Metadata = md
			}
		}

		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}
