package api

import (
	"github.com/gin-gonic/gin"
	"github.com/marvin/jokebot/internal/api/handler"
	"github.com/marvin/jokebot/internal/api/middleware"
	"github.com/marvin/jokebot/internal/logger"
)

// Deps bundles the services and repositories the router needs.
type Deps struct {
	Ask       handler.Asker
	Jokes     handler.JokeReader
	Search    handler.JokeSearcher
	Feedback  handler.FeedbackRecorder
	Analytics handler.StatsProvider
	Log       *logger.Logger
	CORS      middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps Deps, mode string) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Log))
	r.Use(middleware.CORS(deps.CORS))

	// Create handlers
	askHandler := handler.NewAskHandler(deps.Ask)
	jokeHandler := handler.NewJokeHandler(deps.Jokes)
	searchHandler := handler.NewSearchHandler(deps.Search)
	feedbackHandler := handler.NewFeedbackHandler(deps.Feedback)
	analyticsHandler := handler.NewAnalyticsHandler(deps.Analytics)

	// Health check
	r.GET("/health", handler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Chat
		v1.POST("/query", askHandler.Ask)

		// Feedback
		v1.POST("/feedback", feedbackHandler.SubmitFeedback)

		// Corpus
		v1.GET("/jokes", jokeHandler.ListJokes)
		v1.GET("/jokes/random", jokeHandler.RandomJoke)
		v1.GET("/jokes/search", searchHandler.SearchJokes)

		// Analytics (admin)
		v1.GET("/analytics/stats", analyticsHandler.GetStats)
		v1.GET("/analytics/failed-queries", analyticsHandler.GetFailedQueries)
		v1.GET("/analytics/low-satisfaction", analyticsHandler.GetLowSatisfaction)
	}

	return r
}
