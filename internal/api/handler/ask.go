package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marvin/jokebot/internal/service"
)

// Asker runs one chat turn through the recommendation flow.
type Asker interface {
	Ask(ctx context.Context, message string) (*service.AskResult, error)
}

// AskHandler handles the conversational query endpoint.
type AskHandler struct {
	ask Asker
}

// NewAskHandler creates a new ask handler.
// Parameters:
//   - ask: service running the chat flow.
// Returns:
//   - *AskHandler: initialized handler.
func NewAskHandler(ask Asker) *AskHandler {
	return &AskHandler{ask: ask}
}

type askRequest struct {
	Message string `json:"message"`
}

// Ask handles POST /api/v1/query.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No message provided",
		})
		return
	}

	result, err := h.ask.Ask(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCorpus) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "No jokes available in the collection",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "An unexpected error occurred. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
