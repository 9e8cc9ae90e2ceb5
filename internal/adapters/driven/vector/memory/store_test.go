package memory

import (
	"context"
	"math"
	"testing"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := cosine(c.a, c.b)
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("cosine = %f, want %f", got, c.want)
			}
		})
	}
}

func TestStore_SearchRanking(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateCollection(ctx, "collection_2_1", 2, false)
	if err != nil || !created {
		t.Fatalf("CreateCollection: created=%v err=%v", created, err)
	}

	err = s.InsertMany(ctx, "collection_2_1",
		[]string{"east", "north", "northeast"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
		[]domain.Metadata{{"source": "a"}, {"source": "b"}, {"source": "c"}},
		[]int64{1, 2, 3},
	)
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	hits, err := s.SearchByVector(ctx, "collection_2_1", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("SearchByVector: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].RecordID != 1 {
		t.Errorf("expected exact match first, got %d", hits[0].RecordID)
	}
	if hits[1].RecordID != 3 {
		t.Errorf("expected diagonal second, got %d", hits[1].RecordID)
	}
	if hits[0].Text != "east" || hits[0].Metadata["source"] != "a" {
		t.Error("payload not carried through search")
	}
}

func TestStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateCollection(ctx, "c", 2, false)

	if err := s.InsertMany(ctx, "c", []string{"old"}, [][]float32{{1, 0}}, nil, []int64{7}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if err := s.InsertMany(ctx, "c", []string{"new"}, [][]float32{{0, 1}}, nil, []int64{7}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	info, err := s.CollectionInfo(ctx, "c")
	if err != nil {
		t.Fatalf("CollectionInfo: %v", err)
	}
	if info.PointsCount != 1 {
		t.Errorf("expected upsert to keep one point, got %d", info.PointsCount)
	}

	hits, _ := s.SearchByVector(ctx, "c", []float32{0, 1}, 1)
	if len(hits) != 1 || hits[0].Text != "new" {
		t.Errorf("expected overwritten record, got %+v", hits)
	}
}

func TestStore_CreateCollectionReset(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateCollection(ctx, "c", 2, false)
	s.InsertMany(ctx, "c", []string{"x"}, [][]float32{{1, 0}}, nil, []int64{1})

	created, err := s.CreateCollection(ctx, "c", 2, true)
	if err != nil || !created {
		t.Fatalf("reset create: created=%v err=%v", created, err)
	}
	info, _ := s.CollectionInfo(ctx, "c")
	if info.PointsCount != 0 {
		t.Errorf("reset collection should be empty, has %d points", info.PointsCount)
	}

	// Without reset, an existing collection is left alone
	created, err = s.CreateCollection(ctx, "c", 2, false)
	if err != nil || created {
		t.Errorf("existing collection should not be recreated: created=%v err=%v", created, err)
	}
}

func TestStore_DeleteByRecordIDs(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateCollection(ctx, "c", 2, false)
	s.InsertMany(ctx, "c", []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, nil, []int64{1, 2})

	if err := s.DeleteByRecordIDs(ctx, "c", []int64{1}); err != nil {
		t.Fatalf("DeleteByRecordIDs: %v", err)
	}
	hits, _ := s.SearchByVector(ctx, "c", []float32{1, 0}, 10)
	if len(hits) != 1 || hits[0].RecordID != 2 {
		t.Errorf("expected only record 2 to survive, got %+v", hits)
	}
}
