package bm25

import (
	"context"
	"errors"
	"testing"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

func TestTokenize(t *testing.T) {
	t.Run("lowercase and split", func(t *testing.T) {
		tokens := Tokenize("Hello, World! 42")
		if len(tokens) != 3 {
			t.Fatalf("expected 3 tokens, got %v", tokens)
		}
		if tokens[0] != "hello" || tokens[2] != "42" {
			t.Errorf("unexpected tokens: %v", tokens)
		}
	})

	t.Run("stemming unifies word forms", func(t *testing.T) {
		a := Tokenize("running")
		b := Tokenize("runs")
		if len(a) != 1 || len(b) != 1 || a[0] != b[0] {
			t.Errorf("expected same stem, got %v and %v", a, b)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if tokens := Tokenize("  ... !!! "); len(tokens) != 0 {
			t.Errorf("expected no tokens, got %v", tokens)
		}
	})
}

func buildTestIndex(t *testing.T, texts []string) (*Index, []int64) {
	t.Helper()
	idx := New(t.TempDir())
	ids := make([]int64, len(texts))
	for i := range texts {
		ids[i] = int64(i + 1)
	}
	ok, err := idx.Build(context.Background(), 1, ids, texts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !ok {
		t.Fatal("Build returned false for non-empty input")
	}
	return idx, ids
}

func TestIndex_BuildEmpty(t *testing.T) {
	idx := New(t.TempDir())
	ok, err := idx.Build(context.Background(), 1, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ok {
		t.Error("Build should return false for empty input")
	}
}

func TestIndex_SearchMissingIndex(t *testing.T) {
	idx := New(t.TempDir())
	hits, err := idx.Search(context.Background(), 99, "anything", 5)
	if !errors.Is(err, domain.ErrSparseIndexUnavailable) {
		t.Fatalf("expected ErrSparseIndexUnavailable, got %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits without an index, got %d", len(hits))
	}
}

func TestIndex_BuildWithoutUsableTokens(t *testing.T) {
	idx := New(t.TempDir())
	ok, err := idx.Build(context.Background(), 1, []int64{1, 2}, []string{"!!! ...", "  ?? "})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ok {
		t.Error("Build should return false when no chunk tokenizes")
	}
	if idx.Exists(context.Background(), 1) {
		t.Error("no index file should be persisted for an empty vocabulary")
	}
}

func TestIndex_RebuildWithoutUsableTokensDropsIndex(t *testing.T) {
	idx, _ := buildTestIndex(t, []string{"indexed content"})

	ok, err := idx.Build(context.Background(), 1, []int64{9}, []string{"!!!"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ok {
		t.Error("Build should return false when no chunk tokenizes")
	}
	if idx.Exists(context.Background(), 1) {
		t.Error("stale index should be dropped when the rebuild has no vocabulary")
	}
}

func TestIndex_SearchEmptyQuery(t *testing.T) {
	idx, _ := buildTestIndex(t, []string{"some indexed content"})
	hits, err := idx.Search(context.Background(), 1, "!!! ...", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for tokenless query, got %d", len(hits))
	}
}

func TestIndex_SearchRanking(t *testing.T) {
	idx, ids := buildTestIndex(t, []string{
		"the cat sat on the mat",
		"dogs chase cats around the yard",
		"quarterly revenue grew by ten percent",
	})

	hits, err := idx.Search(context.Background(), 1, "cat", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	// Both cat documents match via stemming; the unrelated one must not
	for _, h := range hits {
		if h.ChunkID == ids[2] {
			t.Error("unrelated document should not match")
		}
		if h.Score <= 0 {
			t.Errorf("scores must be strictly positive, got %f", h.Score)
		}
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits not sorted by descending score")
	}
}

func TestIndex_StemmingSymmetry(t *testing.T) {
	// The same stemmer runs at build and query time, so inflected query
	// forms match inflected document forms
	idx, ids := buildTestIndex(t, []string{
		"running shoes for marathon training",
		"shoe repair services downtown",
	})

	hits, err := idx.Search(context.Background(), 1, "run shoes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected both documents to match, got %d hits", len(hits))
	}
	if hits[0].ChunkID != ids[0] {
		t.Errorf("document matching both query terms should rank first, got chunk %d", hits[0].ChunkID)
	}
}

func TestIndex_Limit(t *testing.T) {
	idx, _ := buildTestIndex(t, []string{
		"alpha beta", "alpha gamma", "alpha delta", "alpha epsilon",
	})
	hits, err := idx.Search(context.Background(), 1, "alpha", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected limit to cap hits at 2, got %d", len(hits))
	}
}

func TestIndex_RebuildReplaces(t *testing.T) {
	idx, _ := buildTestIndex(t, []string{"original content about gardens"})

	ok, err := idx.Build(context.Background(), 1, []int64{42}, []string{"replacement content about engines"})
	if err != nil || !ok {
		t.Fatalf("rebuild: ok=%v err=%v", ok, err)
	}

	hits, err := idx.Search(context.Background(), 1, "gardens", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Error("rebuilt index should not contain old documents")
	}

	hits, err = idx.Search(context.Background(), 1, "engines", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != 42 {
		t.Errorf("expected hit for new document, got %v", hits)
	}
}

func TestIndex_Delete(t *testing.T) {
	idx, _ := buildTestIndex(t, []string{"content to forget"})

	if err := idx.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := idx.Search(context.Background(), 1, "content", 5); !errors.Is(err, domain.ErrSparseIndexUnavailable) {
		t.Errorf("deleted index should report ErrSparseIndexUnavailable, got %v", err)
	}

	// Deleting again is not an error
	if err := idx.Delete(context.Background(), 1); err != nil {
		t.Errorf("Delete of missing index: %v", err)
	}
}
