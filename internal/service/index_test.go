package service

import (
	"context"
	"sync"
	"testing"

	"github.com/marvin/jokebot/internal/domain"
	"github.com/marvin/jokebot/internal/repository"
)

type fakeEmbedder struct {
	batchCalls int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return []float32{0.5}, nil
}

type fakeVectorStore struct {
	mu          sync.Mutex
	points      map[string]*repository.JokePayload
	results     []repository.SearchResult
	lastFilters *repository.SearchFilters
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{points: make(map[string]*repository.JokePayload)}
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeVectorStore) CountPoints(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.points)), nil
}

func (f *fakeVectorStore) Upsert(ctx context.Context, pointID string, vector []float32, payload *repository.JokePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[pointID] = payload
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, vector []float32, topK int, filters *repository.SearchFilters) ([]repository.SearchResult, error) {
	f.mu.Lock()
	f.lastFilters = filters
	f.mu.Unlock()
	if topK < len(f.results) {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func indexTestJokes() []domain.Joke {
	return []domain.Joke{
		{SourceID: "1", Category: "Misc", Kind: domain.JokeKindSingle, Joke: "First joke."},
		{SourceID: "2", Category: "Misc", Kind: domain.JokeKindTwopart, Setup: "Setup?", Delivery: "Delivery."},
	}
}

func TestSemanticIndexPopulate(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeVectorStore()
	index := NewSemanticIndex(embedder, store)

	jokes := indexTestJokes()
	if err := index.Populate(context.Background(), jokes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(store.points))
	}
	for _, payload := range store.points {
		if payload.Text == "" {
			t.Error("expected payload text to be set")
		}
	}
}

func TestSemanticIndexPopulateIdempotent(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeVectorStore()
	index := NewSemanticIndex(embedder, store)

	jokes := indexTestJokes()
	if err := index.Populate(context.Background(), jokes); err != nil {
		t.Fatalf("first populate failed: %v", err)
	}
	firstCalls := embedder.batchCalls

	if err := index.Populate(context.Background(), jokes); err != nil {
		t.Fatalf("second populate failed: %v", err)
	}

	if embedder.batchCalls != firstCalls {
		t.Errorf("expected no re-embedding on second populate, calls went %d -> %d", firstCalls, embedder.batchCalls)
	}
	if len(store.points) != 2 {
		t.Errorf("expected point count unchanged, got %d", len(store.points))
	}
}

func TestSemanticIndexPopulateConcurrent(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeVectorStore()
	index := NewSemanticIndex(embedder, store)

	jokes := indexTestJokes()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := index.Populate(context.Background(), jokes); err != nil {
				t.Errorf("populate failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(store.points) != 2 {
		t.Errorf("expected 2 points after concurrent populate, got %d", len(store.points))
	}
	// Only the first caller embeds; the rest see a full collection
	if embedder.batchCalls != 1 {
		t.Errorf("expected 1 embed batch call, got %d", embedder.batchCalls)
	}
}

func TestSemanticIndexPopulateSkipsNonEmptyCollection(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeVectorStore()
	store.points["stale"] = &repository.JokePayload{Text: "leftover"}
	index := NewSemanticIndex(embedder, store)

	// A single existing point means a prior run owns the collection,
	// even when the corpus has since grown
	if err := index.Populate(context.Background(), indexTestJokes()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if embedder.batchCalls != 0 {
		t.Errorf("expected no embedding against a non-empty collection, got %d calls", embedder.batchCalls)
	}
	if len(store.points) != 1 {
		t.Errorf("expected point count unchanged, got %d", len(store.points))
	}
}

func TestSemanticIndexQueryReturnsPayloadTexts(t *testing.T) {
	store := newFakeVectorStore()
	store.results = []repository.SearchResult{
		{ID: "a", Score: 0.9, Payload: &repository.JokePayload{Text: "best match"}},
		{ID: "b", Score: 0.7, Payload: nil},
		{ID: "c", Score: 0.5, Payload: &repository.JokePayload{Text: "second match"}},
	}
	index := NewSemanticIndex(&fakeEmbedder{}, store)

	docs, err := index.Query(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Results without payloads are dropped, order is preserved
	if len(docs) != 2 || docs[0] != "best match" || docs[1] != "second match" {
		t.Errorf("unexpected docs: %v", docs)
	}
}

func TestSemanticIndexQueryZeroK(t *testing.T) {
	index := NewSemanticIndex(&fakeEmbedder{}, newFakeVectorStore())

	docs, err := index.Query(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no docs, got %d", len(docs))
	}
}

func TestSemanticIndexSearchPassesFilters(t *testing.T) {
	store := newFakeVectorStore()
	store.results = []repository.SearchResult{
		{ID: "a", Score: 0.9, Payload: &repository.JokePayload{Category: "Pun", Text: "match"}},
	}
	index := NewSemanticIndex(&fakeEmbedder{}, store)

	category := "Pun"
	filters := &repository.SearchFilters{Category: &category}
	results, err := index.Search(context.Background(), "anything", 3, filters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 || results[0].Payload.Text != "match" {
		t.Errorf("unexpected results: %v", results)
	}
	if store.lastFilters != filters {
		t.Errorf("expected filters to reach the store, got %v", store.lastFilters)
	}
}

func TestSemanticIndexQueryUnfiltered(t *testing.T) {
	store := newFakeVectorStore()
	category := "Pun"
	store.lastFilters = &repository.SearchFilters{Category: &category}
	index := NewSemanticIndex(&fakeEmbedder{}, store)

	if _, err := index.Query(context.Background(), "anything", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastFilters != nil {
		t.Errorf("expected nil filters for an unfiltered query, got %v", store.lastFilters)
	}
}
