package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/marvin/jokebot/internal/domain"
	"github.com/marvin/jokebot/internal/logger"
	"github.com/marvin/jokebot/internal/repository"
)

const embedBatchSize = 32

// Embedder generates embeddings for documents and queries.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// VectorStore persists and searches joke vectors.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	CountPoints(ctx context.Context) (uint64, error)
	Upsert(ctx context.Context, pointID string, vector []float32, payload *repository.JokePayload) error
	Search(ctx context.Context, vector []float32, topK int, filters *repository.SearchFilters) ([]repository.SearchResult, error)
}

// SemanticIndex maintains the joke vector index and answers similarity
// queries against it.
type SemanticIndex struct {
	embedder Embedder
	store    VectorStore

	mu sync.Mutex // guards Populate
}

// NewSemanticIndex creates a new semantic index.
func NewSemanticIndex(embedder Embedder, store VectorStore) *SemanticIndex {
	return &SemanticIndex{
		embedder: embedder,
		store:    store,
	}
}

// jokePointID derives a stable point ID from the joke's corpus identity,
// so repeated population runs overwrite rather than duplicate.
func jokePointID(j domain.Joke) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("jokebot/joke/"+j.SourceID)).String()
}

// Populate indexes the given jokes. The operation runs only against an
// empty collection: any existing points mean a previous run already
// indexed the corpus, and the call returns without re-embedding. Safe
// for concurrent callers.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jokes: the full corpus to index.
// Returns:
//   - error: non-nil if collection setup, embedding, or upsert fails.
func (s *SemanticIndex) Populate(ctx context.Context, jokes []domain.Joke) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	existing, err := s.store.CountPoints(ctx)
	if err != nil {
		return fmt.Errorf("count points: %w", err)
	}
	if existing > 0 {
		logger.With(logger.Fields{
			logger.FieldComponent: "semantic_index",
			logger.FieldCount:     existing,
		}).Info(ctx, "index already populated, skipping")
		return nil
	}

	for start := 0; start < len(jokes); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(jokes) {
			end = len(jokes)
		}
		batch := jokes[start:end]

		texts := make([]string, len(batch))
		for i, j := range batch {
			texts[i] = j.Text()
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}

		for i, j := range batch {
			payload := &repository.JokePayload{
				JokeID:   j.SourceID,
				Category: j.Category,
				Kind:     string(j.Kind),
				Text:     texts[i],
			}
			if err := s.store.Upsert(ctx, jokePointID(j), vectors[i], payload); err != nil {
				return fmt.Errorf("upsert joke %s: %w", j.SourceID, err)
			}
		}
	}

	logger.With(logger.Fields{
		logger.FieldComponent: "semantic_index",
		logger.FieldCount:     len(jokes),
	}).Info(ctx, "index populated")

	return nil
}

// Query embeds the text and returns the indexed joke texts most similar
// to it, in descending score order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - text: the query text.
//   - k: maximum number of documents to return.
// Returns:
//   - []string: matched joke texts, best first.
//   - error: non-nil if embedding or the vector search fails.
func (s *SemanticIndex) Query(ctx context.Context, text string, k int) ([]string, error) {
	results, err := s.Search(ctx, text, k, nil)
	if err != nil {
		return nil, err
	}

	docs := make([]string, 0, len(results))
	for _, res := range results {
		if res.Payload == nil {
			continue
		}
		docs = append(docs, res.Payload.Text)
	}

	return docs, nil
}

// Search embeds the text and returns the scored matches, optionally
// restricted by payload filters on category and kind.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - text: the query text.
//   - k: maximum number of documents to return.
//   - filters: optional payload constraints; nil searches the whole index.
// Returns:
//   - []repository.SearchResult: scored matches, best first.
//   - error: non-nil if embedding or the vector search fails.
func (s *SemanticIndex) Search(ctx context.Context, text string, k int, filters *repository.SearchFilters) ([]repository.SearchResult, error) {
	if k <= 0 {
		return []repository.SearchResult{}, nil
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Search(ctx, vector, k, filters)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return results, nil
}
