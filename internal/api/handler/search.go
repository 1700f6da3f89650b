package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marvin/jokebot/internal/repository"
)

const defaultSearchLimit = 5

// JokeSearcher runs a filtered semantic search over the joke index.
type JokeSearcher interface {
	Search(ctx context.Context, text string, k int, filters *repository.SearchFilters) ([]repository.SearchResult, error)
}

// SearchHandler handles the semantic search endpoint.
type SearchHandler struct {
	searcher JokeSearcher
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searcher JokeSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// searchMatch is one scored result in the search response.
type searchMatch struct {
	JokeID   string  `json:"joke_id"`
	Category string  `json:"category"`
	Kind     string  `json:"kind"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
}

// SearchJokes handles GET /api/v1/jokes/search. The q parameter is
// required; category and kind narrow the search to matching payloads.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) SearchJokes(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No query provided",
		})
		return
	}

	var filters *repository.SearchFilters
	if category, kind := c.Query("category"), c.Query("kind"); category != "" || kind != "" {
		filters = &repository.SearchFilters{}
		if category != "" {
			filters.Category = &category
		}
		if kind != "" {
			filters.Kind = &kind
		}
	}

	limit := queryInt(c, "limit", defaultSearchLimit)

	results, err := h.searcher.Search(c.Request.Context(), query, limit, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	matches := make([]searchMatch, 0, len(results))
	for _, res := range results {
		if res.Payload == nil {
			continue
		}
		matches = append(matches, searchMatch{
			JokeID:   res.Payload.JokeID,
			Category: res.Payload.Category,
			Kind:     res.Payload.Kind,
			Text:     res.Payload.Text,
			Score:    res.Score,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"results": matches,
		"count":   len(matches),
	})
}
