package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marvin/jokebot/internal/domain"
	"gorm.io/gorm"
)

// AnalyticsRepository is the append-only analytics sink. Each event kind
// has its own table; records are never updated or deleted.
type AnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
// Parameters:
//   - db: GORM database handle used for writes and aggregation.
// Returns:
//   - *AnalyticsRepository: repository instance bound to db.
func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// RecordQuery appends a query event.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - event: query event to persist; ID and CreatedAt are filled in when zero.
// Returns:
//   - error: non-nil if the insert fails.
func (r *AnalyticsRepository) RecordQuery(ctx context.Context, event *domain.QueryEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// RecordFeedback appends a feedback event.
func (r *AnalyticsRepository) RecordFeedback(ctx context.Context, event *domain.FeedbackEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// RecordLLMFailure appends a language-model failure event.
func (r *AnalyticsRepository) RecordLLMFailure(ctx context.Context, event *domain.LLMFailureEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// RecordSearchFailure appends a semantic-index failure event.
func (r *AnalyticsRepository) RecordSearchFailure(ctx context.Context, event *domain.SearchFailureEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// Stats holds aggregated analytics statistics.
type Stats struct {
	TotalQueries      int64            `json:"total_queries"`
	SuccessfulQueries int64            `json:"successful_queries"`
	FailedQueries     int64            `json:"failed_queries"`
	NoResultsQueries  int64            `json:"no_results_queries"`
	NSFWBlocked       int64            `json:"nsfw_blocked"`
	LLMFailures       int64            `json:"llm_failures"`
	SearchFailures    int64            `json:"search_failures"`
	AvgResponseTimeMs float64          `json:"avg_response_time_ms"`
	AvgJokesPerQuery  float64          `json:"avg_jokes_per_query"`
	FeedbackCount     int64            `json:"feedback_count"`
	AvgRating         float64          `json:"avg_rating"`
	SuccessRate       float64          `json:"success_rate"`
	CommonFailures    map[string]int64 `json:"common_failures"`
}

// GetStats computes aggregated statistics over all recorded events.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *Stats: aggregated counters, averages, and success rate.
//   - error: non-nil if any aggregation query fails.
func (r *AnalyticsRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{CommonFailures: make(map[string]int64)}

	queries := r.db.WithContext(ctx).Model(&domain.QueryEvent{})
	if err := queries.Count(&stats.TotalQueries).Error; err != nil {
		return nil, err
	}

	typeCounts := []struct {
		ResponseType domain.ResponseType
		N            int64
	}{}
	if err := r.db.WithContext(ctx).Model(&domain.QueryEvent{}).
		Select("response_type, COUNT(*) AS n").
		Group("response_type").
		Scan(&typeCounts).Error; err != nil {
		return nil, err
	}
	for _, tc := range typeCounts {
		switch tc.ResponseType {
		case domain.ResponseSuccess:
			stats.SuccessfulQueries = tc.N
		case domain.ResponseError:
			stats.FailedQueries = tc.N
		case domain.ResponseNoResults:
			stats.NoResultsQueries = tc.N
		case domain.ResponseNSFWBlocked:
			stats.NSFWBlocked = tc.N
		}
	}

	if stats.TotalQueries > 0 {
		row := struct {
			AvgTime  float64
			AvgJokes float64
		}{}
		if err := r.db.WithContext(ctx).Model(&domain.QueryEvent{}).
			Select("AVG(response_time_ms) AS avg_time, AVG(jokes_count) AS avg_jokes").
			Scan(&row).Error; err != nil {
			return nil, err
		}
		stats.AvgResponseTimeMs = row.AvgTime
		stats.AvgJokesPerQuery = row.AvgJokes
		stats.SuccessRate = float64(stats.SuccessfulQueries) / float64(stats.TotalQueries) * 100
	}

	if err := r.db.WithContext(ctx).Model(&domain.FeedbackEvent{}).Count(&stats.FeedbackCount).Error; err != nil {
		return nil, err
	}
	if stats.FeedbackCount > 0 {
		if err := r.db.WithContext(ctx).Model(&domain.FeedbackEvent{}).
			Select("AVG(rating)").
			Scan(&stats.AvgRating).Error; err != nil {
			return nil, err
		}
	}

	if err := r.db.WithContext(ctx).Model(&domain.LLMFailureEvent{}).Count(&stats.LLMFailures).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.SearchFailureEvent{}).Count(&stats.SearchFailures).Error; err != nil {
		return nil, err
	}

	failureCounts := []struct {
		ErrorType string
		N         int64
	}{}
	if err := r.db.WithContext(ctx).Model(&domain.LLMFailureEvent{}).
		Select("error_type, COUNT(*) AS n").
		Group("error_type").
		Scan(&failureCounts).Error; err != nil {
		return nil, err
	}
	for _, fc := range failureCounts {
		stats.CommonFailures[fc.ErrorType] = fc.N
	}

	return stats, nil
}

// GetFailedQueries returns the most recent query events that produced an
// error or no results.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of events to return.
// Returns:
//   - []domain.QueryEvent: most recent failed queries, newest first.
//   - error: non-nil if the query fails.
func (r *AnalyticsRepository) GetFailedQueries(ctx context.Context, limit int) ([]domain.QueryEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	var events []domain.QueryEvent
	if err := r.db.WithContext(ctx).
		Where("response_type IN ?", []domain.ResponseType{domain.ResponseError, domain.ResponseNoResults}).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// GetLowSatisfaction returns the most recent feedback events at or below
// the given rating threshold.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - threshold: maximum rating to include.
//   - limit: maximum number of events to return.
// Returns:
//   - []domain.FeedbackEvent: low-rated feedback, newest first.
//   - error: non-nil if the query fails.
func (r *AnalyticsRepository) GetLowSatisfaction(ctx context.Context, threshold, limit int) ([]domain.FeedbackEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	var events []domain.FeedbackEvent
	if err := r.db.WithContext(ctx).
		Where("rating <= ?", threshold).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
