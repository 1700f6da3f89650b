package repository

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/marvin/jokebot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JokeRepository handles corpus data operations. The corpus is written
// only by the fetch pipeline; request handling treats it as read-only.
type JokeRepository struct {
	db *gorm.DB
}

// NewJokeRepository creates a new JokeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JokeRepository: repository instance bound to db.
func NewJokeRepository(db *gorm.DB) *JokeRepository {
	return &JokeRepository{db: db}
}

// Upsert creates or updates a joke record keyed by its upstream source ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - joke: joke record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *JokeRepository) Upsert(ctx context.Context, joke *domain.Joke) error {
	if joke.ID == "" {
		joke.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		DoNothing: true,
	}).Create(joke).Error
}

// GetByID retrieves a joke by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: joke ID.
// Returns:
//   - *domain.Joke: joke record if found.
//   - error: non-nil if lookup fails.
func (r *JokeRepository) GetByID(ctx context.Context, id string) (*domain.Joke, error) {
	var joke domain.Joke
	if err := r.db.WithContext(ctx).First(&joke, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &joke, nil
}

// ExistsBySourceID checks if a joke with the given upstream ID exists.
// Used by the fetch pipeline to deduplicate.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: upstream joke identifier.
// Returns:
//   - bool: true if a record exists.
//   - error: non-nil if the lookup fails.
func (r *JokeRepository) ExistsBySourceID(ctx context.Context, sourceID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Joke{}).Where("source_id = ?", sourceID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAll retrieves the full corpus in insertion order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Joke: every joke record.
//   - error: non-nil if the query fails.
func (r *JokeRepository) ListAll(ctx context.Context) ([]domain.Joke, error) {
	var jokes []domain.Joke
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&jokes).Error; err != nil {
		return nil, fmt.Errorf("failed to list jokes: %w", err)
	}
	return jokes, nil
}

// Count returns the number of jokes in the corpus.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: total record count.
//   - error: non-nil if the query fails.
func (r *JokeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Joke{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Random returns one joke chosen uniformly at random, or nil when the
// corpus is empty.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.Joke: random joke record, nil for an empty corpus.
//   - error: non-nil if the query fails.
func (r *JokeRepository) Random(ctx context.Context) (*domain.Joke, error) {
	jokes, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(jokes) == 0 {
		return nil, nil
	}
	return &jokes[rand.Intn(len(jokes))], nil
}
