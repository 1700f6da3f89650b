package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marvin/jokebot/internal/domain"
	"github.com/marvin/jokebot/internal/logger"
	"github.com/marvin/jokebot/internal/prompts"
)

// Identifier recorded with language-model failure events when the flow
// falls back to raw vector-search results.
const directSearchFallback = "chromadb_direct"

// Fixed response strings. Clients pattern-match on these.
const (
	msgBlocked       = "I cannot provide NSFW or inappropriate content. All jokes in my collection are filtered to exclude such content."
	msgExistenceNo   = "No, I don't have any jokes matching that description in my collection."
	msgSearchTrouble = "I'm having trouble searching the joke collection. Please try again."
	msgNoMatches     = "I couldn't find any jokes matching your request."
	msgNoPerfectFit  = "I couldn't find a joke that matches your request perfectly. Would you like a random joke instead?"
	msgFound         = "Here's what I found for you:"
	msgRandomInstead = "I'm having trouble processing your request. Here's a random joke instead:"
)

// ErrEmptyCorpus is returned when no jokes have been loaded.
var ErrEmptyCorpus = errors.New("no jokes available in the collection")

// CorpusLister provides the full joke corpus.
type CorpusLister interface {
	ListAll(ctx context.Context) ([]domain.Joke, error)
}

// Searcher answers similarity queries with joke texts, best first.
type Searcher interface {
	Query(ctx context.Context, text string, k int) ([]string, error)
}

// Completer returns a single-turn language-model reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnalyticsSink records query and failure events.
type AnalyticsSink interface {
	RecordQuery(ctx context.Context, event *domain.QueryEvent) error
	RecordLLMFailure(ctx context.Context, event *domain.LLMFailureEvent) error
}

// AskResult is the outcome of one chat turn.
type AskResult struct {
	Response string        `json:"response"`
	Jokes    []domain.Joke `json:"jokes"`
}

// AskService runs a user message through safety filtering, intent
// classification, retrieval, and disambiguation.
type AskService struct {
	safety    *SafetyFilter
	corpus    CorpusLister
	index     Searcher
	llm       Completer
	analytics AnalyticsSink
}

// NewAskService creates a new AskService.
func NewAskService(safety *SafetyFilter, corpus CorpusLister, index Searcher, llm Completer, analytics AnalyticsSink) *AskService {
	return &AskService{
		safety:    safety,
		corpus:    corpus,
		index:     index,
		llm:       llm,
		analytics: analytics,
	}
}

// Ask handles one chat turn.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - message: the user's message; must be non-empty.
// Returns:
//   - *AskResult: response text plus zero or more jokes.
//   - error: ErrEmptyCorpus when no jokes are loaded, or a corpus read error.
func (s *AskService) Ask(ctx context.Context, message string) (*AskResult, error) {
	start := time.Now()

	// The query id ties log lines to the persisted query event
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldQueryID: uuid.New().String(),
	})

	if s.safety.IsBlocked(message) {
		s.logQuery(ctx, message, domain.ResponseNSFWBlocked, 0, start, "")
		return &AskResult{Response: msgBlocked, Jokes: []domain.Joke{}}, nil
	}

	allJokes, err := s.corpus.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(allJokes) == 0 {
		return nil, ErrEmptyCorpus
	}

	switch ClassifyIntent(message) {
	case IntentCounting:
		return s.handleCounting(ctx, message, allJokes, start), nil
	case IntentExistence:
		return s.handleExistence(ctx, message, allJokes), nil
	default:
		return s.handleRecommend(ctx, message, allJokes, start), nil
	}
}

// handleCounting answers "how many" questions by scanning the corpus for
// the extracted topic. The similarity search runs but its result is not
// consulted; the count comes from exact corpus scanning.
func (s *AskService) handleCounting(ctx context.Context, message string, allJokes []domain.Joke, start time.Time) *AskResult {
	topic, err := s.countTopic(ctx, message, len(allJokes))
	if err != nil {
		topic = ExtractCountTopic(message)
		logger.With(logger.Fields{
			logger.FieldComponent: "ask",
		}).Warn(ctx, "LLM failed for counting, using fallback: %v", err)
	}

	var matching []domain.Joke
	for _, joke := range allJokes {
		category := strings.ToLower(joke.Category)
		text := strings.ToLower(joke.Text())
		if strings.Contains(category, topic) || strings.Contains(text, topic) {
			matching = append(matching, joke)
		}
	}

	if len(matching) == 0 {
		s.logQuery(ctx, message, domain.ResponseNoResults, 0, start, "")
		return &AskResult{
			Response: fmt.Sprintf("I have 0 %s jokes in my collection.", topic),
			Jokes:    []domain.Joke{},
		}
	}

	examples := matching
	if len(examples) > 3 {
		examples = examples[:3]
	}
	s.logQuery(ctx, message, domain.ResponseSuccess, len(examples), start, "")

	plural := "s"
	if len(matching) == 1 {
		plural = ""
	}
	return &AskResult{
		Response: fmt.Sprintf("I have %d %s joke%s in my collection.", len(matching), topic, plural),
		Jokes:    examples,
	}
}

// countTopic extracts the counting topic via the language model. The
// similarity query over the whole corpus runs first; a failure there
// also trips the rule-based fallback.
func (s *AskService) countTopic(ctx context.Context, message string, corpusSize int) (string, error) {
	if _, err := s.index.Query(ctx, message, corpusSize); err != nil {
		return "", err
	}

	reply, err := s.llm.Complete(ctx, prompts.BuildCountTopicPrompt(message))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(reply)), nil
}

// handleExistence answers yes/no questions about the corpus. This branch
// records no analytics events on any path.
func (s *AskService) handleExistence(ctx context.Context, message string, allJokes []domain.Joke) *AskResult {
	docs, err := s.index.Query(ctx, message, 10)
	if err != nil {
		logger.With(logger.Fields{
			logger.FieldComponent: "ask",
		}).Warn(ctx, "search failed: %v", err)
		return &AskResult{Response: msgSearchTrouble, Jokes: []domain.Joke{}}
	}

	if len(docs) > 0 {
		if len(docs) > 5 {
			docs = docs[:5]
		}
		matching := reconcile(docs, allJokes)

		if len(matching) > 0 {
			plural := "s"
			if len(matching) == 1 {
				plural = ""
			}
			examples := matching
			if len(examples) > 3 {
				examples = examples[:3]
			}
			return &AskResult{
				Response: fmt.Sprintf("Yes, I found %d joke%s matching your query. Here are some examples:", len(matching), plural),
				Jokes:    examples,
			}
		}
	}

	return &AskResult{Response: msgExistenceNo, Jokes: []domain.Joke{}}
}

// handleRecommend retrieves candidates, asks the language model to pick,
// and falls back to raw search results, then to a random joke.
func (s *AskService) handleRecommend(ctx context.Context, message string, allJokes []domain.Joke, start time.Time) *AskResult {
	result, err := s.recommendWithLLM(ctx, message, allJokes, start)
	if err == nil {
		return result
	}

	logger.With(logger.Fields{
		logger.FieldComponent: "ask",
	}).Warn(ctx, "LLM selection failed, using search results directly: %v", err)
	s.logLLMFailure(ctx, "llm_selection_error", err.Error(), directSearchFallback)

	docs, fallbackErr := s.index.Query(ctx, message, 3)
	if fallbackErr == nil {
		fallbackJokes := reconcile(docs, allJokes)
		s.logQuery(ctx, message, domain.ResponseSuccess, len(fallbackJokes), start, "")
		if fallbackJokes == nil {
			fallbackJokes = []domain.Joke{}
		}
		return &AskResult{Response: msgFound, Jokes: fallbackJokes}
	}

	logger.With(logger.Fields{
		logger.FieldComponent: "ask",
	}).Error(ctx, "fallback search also failed: %v", fallbackErr)
	s.logQuery(ctx, message, domain.ResponseError, 0, start, fallbackErr.Error())

	random := allJokes[rand.Intn(len(allJokes))]
	return &AskResult{Response: msgRandomInstead, Jokes: []domain.Joke{random}}
}

// recommendWithLLM runs the primary recommendation path. Any returned
// error sends the caller into the direct-search fallback. Terminal
// no-result outcomes are returned as results, not errors.
func (s *AskService) recommendWithLLM(ctx context.Context, message string, allJokes []domain.Joke, start time.Time) (*AskResult, error) {
	docs, err := s.index.Query(ctx, message, 5)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		s.logQuery(ctx, message, domain.ResponseNoResults, 0, start, "")
		return &AskResult{Response: msgNoMatches, Jokes: []domain.Joke{}}, nil
	}

	reply, err := s.llm.Complete(ctx, prompts.BuildRecommendPrompt(message, docs))
	if err != nil {
		return nil, err
	}

	selected := strings.TrimSpace(reply)
	if strings.ToLower(selected) == "none" {
		s.logQuery(ctx, message, domain.ResponseNoResults, 0, start, "")
		return &AskResult{Response: msgNoPerfectFit, Jokes: []domain.Joke{}}, nil
	}

	var selectedJokes []domain.Joke
	for _, part := range strings.Split(selected, ",") {
		part = strings.TrimSpace(part)
		num, convErr := strconv.Atoi(part)
		if convErr != nil {
			continue
		}
		idx := num - 1
		if idx < 0 || idx >= len(docs) {
			continue
		}
		if joke, ok := findByText(docs[idx], allJokes); ok {
			selectedJokes = append(selectedJokes, joke)
		}
	}

	// Nothing usable in the model's pick: fall back to the top search hit
	if len(selectedJokes) == 0 {
		if joke, ok := findByText(docs[0], allJokes); ok {
			selectedJokes = append(selectedJokes, joke)
		}
	}

	s.logQuery(ctx, message, domain.ResponseSuccess, len(selectedJokes), start, "")
	if selectedJokes == nil {
		selectedJokes = []domain.Joke{}
	}
	return &AskResult{Response: msgFound, Jokes: selectedJokes}, nil
}

// reconcile maps retrieved joke texts back to corpus records by exact
// text match. Unmatched texts are dropped; the first corpus match wins.
func reconcile(docs []string, allJokes []domain.Joke) []domain.Joke {
	var matched []domain.Joke
	for _, doc := range docs {
		if joke, ok := findByText(doc, allJokes); ok {
			matched = append(matched, joke)
		}
	}
	return matched
}

func findByText(doc string, allJokes []domain.Joke) (domain.Joke, bool) {
	for _, joke := range allJokes {
		if joke.Text() == doc {
			return joke, true
		}
	}
	return domain.Joke{}, false
}

func (s *AskService) logQuery(ctx context.Context, message string, responseType domain.ResponseType, jokesCount int, start time.Time, errMsg string) {
	event := &domain.QueryEvent{
		ID:             logger.GetQueryID(ctx),
		UserMessage:    message,
		ResponseType:   responseType,
		JokesCount:     jokesCount,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
	if errMsg != "" {
		event.Error = &errMsg
	}
	if err := s.analytics.RecordQuery(ctx, event); err != nil {
		logger.CtxWarn(ctx, "failed to record query event: %v", err)
	}
}

func (s *AskService) logLLMFailure(ctx context.Context, errorType, errorMessage, fallbackUsed string) {
	event := &domain.LLMFailureEvent{
		ErrorType:    errorType,
		ErrorMessage: errorMessage,
		FallbackUsed: fallbackUsed,
	}
	if err := s.analytics.RecordLLMFailure(ctx, event); err != nil {
		logger.CtxWarn(ctx, "failed to record llm failure event: %v", err)
	}
}
