package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marvin/jokebot/internal/domain"
)

// JokeReader provides read access to the joke corpus.
type JokeReader interface {
	ListAll(ctx context.Context) ([]domain.Joke, error)
	Random(ctx context.Context) (*domain.Joke, error)
}

// JokeHandler handles corpus browsing endpoints.
type JokeHandler struct {
	jokes JokeReader
}

// NewJokeHandler creates a new joke handler.
func NewJokeHandler(jokes JokeReader) *JokeHandler {
	return &JokeHandler{jokes: jokes}
}

// ListJokes handles GET /api/v1/jokes.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JokeHandler) ListJokes(c *gin.Context) {
	jokes, err := h.jokes.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load jokes: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jokes": jokes,
		"count": len(jokes),
	})
}

// RandomJoke handles GET /api/v1/jokes/random.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JokeHandler) RandomJoke(c *gin.Context) {
	joke, err := h.jokes.Random(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load joke: " + err.Error(),
		})
		return
	}
	if joke == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No jokes available",
		})
		return
	}

	c.JSON(http.StatusOK, joke)
}
