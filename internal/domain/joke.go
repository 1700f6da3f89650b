package domain

import "time"

// JokeKind represents the structural form of a joke.
// Values include JokeKindSingle and JokeKindTwopart.
type JokeKind string

const (
	JokeKindSingle  JokeKind = "single"
	JokeKindTwopart JokeKind = "twopart"
)

// DefaultCategory is used when a fetched joke carries no category label.
const DefaultCategory = "Unknown"

// Joke represents one immutable joke record in the corpus.
// Single jokes carry their text in Joke; twopart jokes carry Setup and
// Delivery. Records are created once by the fetch pipeline and never
// mutated afterwards.
type Joke struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	SourceID  string    `gorm:"type:text;not null;uniqueIndex:idx_jokes_source" json:"source_id"`
	Category  string    `gorm:"type:text;index:idx_jokes_category" json:"category"`
	Kind      JokeKind  `gorm:"type:text;not null" json:"type"`
	Joke      string    `gorm:"type:text" json:"joke,omitempty"`
	Setup     string    `gorm:"type:text" json:"setup,omitempty"`
	Delivery  string    `gorm:"type:text" json:"delivery,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Joke.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Joke) TableName() string {
	return "jokes"
}

// Text returns the canonical string representation of the joke. This is
// the value indexed by the semantic index and the exact-match join key
// used to map search documents back to corpus records.
func (j Joke) Text() string {
	if j.Kind == JokeKindTwopart {
		return j.Setup + " " + j.Delivery
	}
	return j.Joke
}
