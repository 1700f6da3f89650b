package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbeddingServiceEmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jinaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Task != "retrieval.passage" {
			t.Errorf("expected retrieval.passage task, got %q", req.Task)
		}

		// Answer out of order; the client must restore input order
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.2,0.2],"index":1},{"embedding":[0.1,0.1],"index":0}]}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(&EmbeddingConfig{
		Model:      "jina-embeddings-v3",
		APIKey:     "test-key",
		Dimensions: 2,
		Endpoint:   server.URL,
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(embeddings))
	}
	if embeddings[0][0] != 0.1 || embeddings[1][0] != 0.2 {
		t.Errorf("embeddings not reordered by index: %v", embeddings)
	}
}

func TestEmbeddingServiceEmbedBatchEmpty(t *testing.T) {
	svc := NewEmbeddingService(&EmbeddingConfig{Model: "m", APIKey: "k"})

	embeddings, err := svc.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embeddings) != 0 {
		t.Errorf("expected no embeddings, got %d", len(embeddings))
	}
}

func TestEmbeddingServiceEmbedQueryTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jinaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Task != "retrieval.query" {
			t.Errorf("expected retrieval.query task, got %q", req.Task)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.5],"index":0}]}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(&EmbeddingConfig{Model: "m", APIKey: "k", Endpoint: server.URL})

	vec, err := svc.EmbedQuery(context.Background(), "funny cats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 1 || vec[0] != 0.5 {
		t.Errorf("unexpected embedding: %v", vec)
	}
}

func TestEmbeddingServiceErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(&EmbeddingConfig{Model: "m", APIKey: "bad", Endpoint: server.URL})

	if _, err := svc.EmbedQuery(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for unauthorized response")
	}
}
