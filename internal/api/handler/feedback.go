package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marvin/jokebot/internal/domain"
)

// FeedbackRecorder persists feedback events.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, event *domain.FeedbackEvent) error
}

// FeedbackHandler handles the feedback endpoint.
type FeedbackHandler struct {
	analytics FeedbackRecorder
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(analytics FeedbackRecorder) *FeedbackHandler {
	return &FeedbackHandler{analytics: analytics}
}

// Rating is a pointer so that a missing field is distinguishable from an
// explicit zero rating; only a missing field is rejected.
type feedbackRequest struct {
	QueryID *string `json:"query_id"`
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// SubmitFeedback handles POST /api/v1/feedback.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if req.Rating == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Rating is required",
		})
		return
	}

	event := &domain.FeedbackEvent{
		QueryID: req.QueryID,
		Rating:  *req.Rating,
		Comment: req.Comment,
	}
	if err := h.analytics.RecordFeedback(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record feedback: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Thank you for your feedback!",
	})
}
