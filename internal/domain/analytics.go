package domain

import "time"

// ResponseType classifies the outcome of a user query.
// Values include ResponseSuccess, ResponseNoResults, ResponseError, and
// ResponseNSFWBlocked.
type ResponseType string

const (
	ResponseSuccess     ResponseType = "success"
	ResponseNoResults   ResponseType = "no_results"
	ResponseError       ResponseType = "error"
	ResponseNSFWBlocked ResponseType = "nsfw_blocked"
)

// QueryEvent records one user query and its outcome. Append-only.
type QueryEvent struct {
	ID             string       `gorm:"type:text;primaryKey" json:"id"`
	UserMessage    string       `gorm:"type:text;not null" json:"user_message"`
	ResponseType   ResponseType `gorm:"type:text;not null;index:idx_query_events_type" json:"response_type"`
	JokesCount     int          `json:"jokes_count"`
	ResponseTimeMs int64        `json:"response_time_ms"`
	Error          *string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time    `json:"timestamp"`
}

// TableName returns the database table name for QueryEvent.
func (QueryEvent) TableName() string {
	return "query_events"
}

// FeedbackEvent records user feedback on a previous response. Append-only.
// Rating is required at the API boundary; QueryID and Comment are optional.
type FeedbackEvent struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	QueryID   *string   `gorm:"type:text" json:"query_id,omitempty"`
	Rating    int       `gorm:"not null;index:idx_feedback_events_rating" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// TableName returns the database table name for FeedbackEvent.
func (FeedbackEvent) TableName() string {
	return "feedback_events"
}

// LLMFailureEvent records a language-model failure and which fallback
// strategy handled it. Append-only.
type LLMFailureEvent struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	ErrorType    string    `gorm:"type:text;not null" json:"error_type"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
	FallbackUsed string    `gorm:"type:text" json:"fallback_used"`
	CreatedAt    time.Time `json:"timestamp"`
}

// TableName returns the database table name for LLMFailureEvent.
func (LLMFailureEvent) TableName() string {
	return "llm_failure_events"
}

// SearchFailureEvent records a semantic-index failure. Append-only.
type SearchFailureEvent struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time `json:"timestamp"`
}

// TableName returns the database table name for SearchFailureEvent.
func (SearchFailureEvent) TableName() string {
	return "search_failure_events"
}
