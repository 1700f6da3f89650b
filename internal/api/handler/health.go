package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health. Liveness only; it does not touch the
// database or the vector index.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "jokebot",
	})
}
