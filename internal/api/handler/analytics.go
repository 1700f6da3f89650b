package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/marvin/jokebot/internal/domain"
	"github.com/marvin/jokebot/internal/repository"
)

const (
	defaultFailedQueryLimit      = 20
	defaultLowSatisfactionLimit  = 20
	defaultSatisfactionThreshold = 2
)

// StatsProvider exposes aggregated analytics.
type StatsProvider interface {
	GetStats(ctx context.Context) (*repository.Stats, error)
	GetFailedQueries(ctx context.Context, limit int) ([]domain.QueryEvent, error)
	GetLowSatisfaction(ctx context.Context, threshold, limit int) ([]domain.FeedbackEvent, error)
}

// AnalyticsHandler handles admin analytics endpoints.
type AnalyticsHandler struct {
	analytics StatsProvider
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics StatsProvider) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GetStats handles GET /api/v1/analytics/stats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	stats, err := h.analytics.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get stats: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetFailedQueries handles GET /api/v1/analytics/failed-queries.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalyticsHandler) GetFailedQueries(c *gin.Context) {
	limit := queryInt(c, "limit", defaultFailedQueryLimit)

	failed, err := h.analytics.GetFailedQueries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get failed queries: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"failed_queries": failed,
	})
}

// GetLowSatisfaction handles GET /api/v1/analytics/low-satisfaction.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalyticsHandler) GetLowSatisfaction(c *gin.Context) {
	threshold := queryInt(c, "threshold", defaultSatisfactionThreshold)
	limit := queryInt(c, "limit", defaultLowSatisfactionLimit)

	lowRated, err := h.analytics.GetLowSatisfaction(c.Request.Context(), threshold, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get low satisfaction queries: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"low_satisfaction_queries": lowRated,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}
