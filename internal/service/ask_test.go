package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marvin/jokebot/internal/domain"
)

type fakeCorpus struct {
	jokes []domain.Joke
	err   error
}

func (f *fakeCorpus) ListAll(ctx context.Context) ([]domain.Joke, error) {
	return f.jokes, f.err
}

type fakeSearcher struct {
	queryFn func(text string, k int) ([]string, error)
	ks      []int
}

func (f *fakeSearcher) Query(ctx context.Context, text string, k int) ([]string, error) {
	f.ks = append(f.ks, k)
	return f.queryFn(text, k)
}

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeSink struct {
	queries     []*domain.QueryEvent
	llmFailures []*domain.LLMFailureEvent
}

func (f *fakeSink) RecordQuery(ctx context.Context, event *domain.QueryEvent) error {
	f.queries = append(f.queries, event)
	return nil
}

func (f *fakeSink) RecordLLMFailure(ctx context.Context, event *domain.LLMFailureEvent) error {
	f.llmFailures = append(f.llmFailures, event)
	return nil
}

func testCorpus() []domain.Joke {
	return []domain.Joke{
		{SourceID: "1", Category: "Science", Kind: domain.JokeKindSingle, Joke: "A physics joke about momentum."},
		{SourceID: "2", Category: "Science", Kind: domain.JokeKindSingle, Joke: "Another physics pun on entropy."},
		{SourceID: "3", Category: "Physics", Kind: domain.JokeKindTwopart, Setup: "Why did the photon pack light?", Delivery: "It was traveling."},
		{SourceID: "4", Category: "Science", Kind: domain.JokeKindSingle, Joke: "Schrodinger's cat walks into a bar on physics night."},
		{SourceID: "5", Category: "Programming", Kind: domain.JokeKindSingle, Joke: "A programmer's wife says get milk."},
		{SourceID: "6", Category: "Misc", Kind: domain.JokeKindTwopart, Setup: "What do cats read?", Delivery: "The mewspaper."},
	}
}

func newTestAsk(corpus []domain.Joke, searcher *fakeSearcher, completer *fakeCompleter, sink *fakeSink) *AskService {
	safety := NewSafetyFilter([]string{"nsfw", "inappropriate", "explicit", "adult", "dirty", "sexual"})
	return NewAskService(safety, &fakeCorpus{jokes: corpus}, searcher, completer, sink)
}

func noopSearcher() *fakeSearcher {
	return &fakeSearcher{queryFn: func(string, int) ([]string, error) { return nil, nil }}
}

func TestAskBlocksUnsafeMessages(t *testing.T) {
	sink := &fakeSink{}
	svc := newTestAsk(testCorpus(), noopSearcher(), &fakeCompleter{}, sink)

	result, err := svc.Ask(context.Background(), "tell me a dirty joke")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgBlocked {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 0 {
		t.Errorf("expected no jokes, got %d", len(result.Jokes))
	}

	if len(sink.queries) != 1 {
		t.Fatalf("expected 1 query event, got %d", len(sink.queries))
	}
	if sink.queries[0].ResponseType != domain.ResponseNSFWBlocked {
		t.Errorf("expected nsfw_blocked event, got %s", sink.queries[0].ResponseType)
	}
	if sink.queries[0].JokesCount != 0 {
		t.Errorf("expected jokes_count 0, got %d", sink.queries[0].JokesCount)
	}
}

func TestAskEmptyCorpus(t *testing.T) {
	svc := newTestAsk(nil, noopSearcher(), &fakeCompleter{}, &fakeSink{})

	_, err := svc.Ask(context.Background(), "tell me a joke")
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestAskCountingWithTopicFromModel(t *testing.T) {
	corpus := testCorpus()
	searcher := noopSearcher()
	completer := &fakeCompleter{reply: "Physics"}
	sink := &fakeSink{}
	svc := newTestAsk(corpus, searcher, completer, sink)

	result, err := svc.Ask(context.Background(), "How many physics jokes do you have?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Jokes 1-4 mention physics in category or text
	if result.Response != "I have 4 physics jokes in my collection." {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 3 {
		t.Errorf("expected 3 example jokes, got %d", len(result.Jokes))
	}

	// The similarity search runs over the whole corpus even though its
	// result is not used for the count
	if len(searcher.ks) != 1 || searcher.ks[0] != len(corpus) {
		t.Errorf("expected one search with k=%d, got %v", len(corpus), searcher.ks)
	}

	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseSuccess {
		t.Fatalf("expected one success event, got %+v", sink.queries)
	}
	if sink.queries[0].JokesCount != 3 {
		t.Errorf("expected jokes_count 3, got %d", sink.queries[0].JokesCount)
	}
}

func TestAskCountingSingular(t *testing.T) {
	corpus := testCorpus()
	completer := &fakeCompleter{reply: "programmer"}
	svc := newTestAsk(corpus, noopSearcher(), completer, &fakeSink{})

	result, err := svc.Ask(context.Background(), "how many programmer jokes?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != "I have 1 programmer joke in my collection." {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 1 {
		t.Errorf("expected 1 example joke, got %d", len(result.Jokes))
	}
}

func TestAskCountingZeroMatches(t *testing.T) {
	sink := &fakeSink{}
	completer := &fakeCompleter{reply: "zebra"}
	svc := newTestAsk(testCorpus(), noopSearcher(), completer, sink)

	result, err := svc.Ask(context.Background(), "how many zebra jokes do you have?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != "I have 0 zebra jokes in my collection." {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 0 {
		t.Errorf("expected no jokes, got %d", len(result.Jokes))
	}
	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseNoResults {
		t.Fatalf("expected one no_results event, got %+v", sink.queries)
	}
}

func TestAskCountingFallsBackToRegexOnModelFailure(t *testing.T) {
	sink := &fakeSink{}
	completer := &fakeCompleter{err: errors.New("timeout")}
	svc := newTestAsk(testCorpus(), noopSearcher(), completer, sink)

	result, err := svc.Ask(context.Background(), "how many physics jokes do you have?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Response, "4 physics joke") {
		t.Errorf("expected regex-extracted topic to drive the count, got %q", result.Response)
	}

	// Counting failures fall back silently, no llm_failure event
	if len(sink.llmFailures) != 0 {
		t.Errorf("expected no llm failure events, got %d", len(sink.llmFailures))
	}
}

func TestAskCountingFallsBackOnSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return nil, errors.New("index down")
	}}
	completer := &fakeCompleter{reply: "should not be used"}
	svc := newTestAsk(testCorpus(), searcher, completer, &fakeSink{})

	result, err := svc.Ask(context.Background(), "how many physics jokes do you have?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Response, "physics") {
		t.Errorf("expected regex fallback topic, got %q", result.Response)
	}
	if len(completer.prompts) != 0 {
		t.Errorf("expected no model call after search failure, got %d", len(completer.prompts))
	}
}

func TestAskExistenceFound(t *testing.T) {
	corpus := testCorpus()
	searcher := &fakeSearcher{queryFn: func(_ string, k int) ([]string, error) {
		if k != 10 {
			t.Errorf("expected k=10, got %d", k)
		}
		return []string{
			corpus[5].Text(),
			corpus[0].Text(),
			"a document that matches nothing",
		}, nil
	}}
	sink := &fakeSink{}
	svc := newTestAsk(corpus, searcher, &fakeCompleter{}, sink)

	result, err := svc.Ask(context.Background(), "Are there jokes about cats?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != "Yes, I found 2 jokes matching your query. Here are some examples:" {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 2 {
		t.Errorf("expected 2 jokes, got %d", len(result.Jokes))
	}
	if result.Jokes[0].SourceID != "6" {
		t.Errorf("expected retrieval order preserved, got %s first", result.Jokes[0].SourceID)
	}

	// The existence branch records nothing
	if len(sink.queries) != 0 || len(sink.llmFailures) != 0 {
		t.Errorf("expected no analytics events, got %d query and %d failure events", len(sink.queries), len(sink.llmFailures))
	}
}

func TestAskExistenceSingular(t *testing.T) {
	corpus := testCorpus()
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return []string{corpus[5].Text()}, nil
	}}
	svc := newTestAsk(corpus, searcher, &fakeCompleter{}, &fakeSink{})

	result, err := svc.Ask(context.Background(), "Is there a joke about cats?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(result.Response, "Yes, I found 1 joke matching") {
		t.Errorf("expected singular phrasing, got %q", result.Response)
	}
}

func TestAskExistenceNoMatches(t *testing.T) {
	sink := &fakeSink{}
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return []string{"unreconcilable text"}, nil
	}}
	svc := newTestAsk(testCorpus(), searcher, &fakeCompleter{}, sink)

	result, err := svc.Ask(context.Background(), "Are there jokes about submarines?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgExistenceNo {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(sink.queries) != 0 {
		t.Errorf("expected no analytics events, got %d", len(sink.queries))
	}
}

func TestAskExistenceSearchFailure(t *testing.T) {
	sink := &fakeSink{}
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return nil, errors.New("index down")
	}}
	svc := newTestAsk(testCorpus(), searcher, &fakeCompleter{}, sink)

	result, err := svc.Ask(context.Background(), "Are there jokes about cats?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgSearchTrouble {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(sink.queries) != 0 || len(sink.llmFailures) != 0 {
		t.Error("expected no analytics events on existence search failure")
	}
}

func TestAskRecommendSelectsByNumber(t *testing.T) {
	corpus := testCorpus()
	searcher := &fakeSearcher{queryFn: func(_ string, k int) ([]string, error) {
		if k != 5 {
			t.Errorf("expected k=5, got %d", k)
		}
		return []string{corpus[0].Text(), corpus[4].Text(), corpus[5].Text()}, nil
	}}
	completer := &fakeCompleter{reply: "2,3"}
	sink := &fakeSink{}
	svc := newTestAsk(corpus, searcher, completer, sink)

	result, err := svc.Ask(context.Background(), "tell me a joke about programmers or cats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgFound {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 2 {
		t.Fatalf("expected 2 jokes, got %d", len(result.Jokes))
	}
	if result.Jokes[0].SourceID != "5" || result.Jokes[1].SourceID != "6" {
		t.Errorf("wrong jokes selected: %s, %s", result.Jokes[0].SourceID, result.Jokes[1].SourceID)
	}

	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseSuccess {
		t.Fatalf("expected one success event, got %+v", sink.queries)
	}
	if sink.queries[0].JokesCount != 2 {
		t.Errorf("expected jokes_count 2, got %d", sink.queries[0].JokesCount)
	}
}

func TestAskRecommendNone(t *testing.T) {
	corpus := testCorpus()
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return []string{corpus[0].Text()}, nil
	}}
	completer := &fakeCompleter{reply: "None"}
	sink := &fakeSink{}
	svc := newTestAsk(corpus, searcher, completer, sink)

	result, err := svc.Ask(context.Background(), "tell me a joke about submarines")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgNoPerfectFit {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseNoResults {
		t.Fatalf("expected one no_results event, got %+v", sink.queries)
	}
}

func TestAskRecommendEmptyIndex(t *testing.T) {
	sink := &fakeSink{}
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return []string{}, nil
	}}
	svc := newTestAsk(testCorpus(), searcher, &fakeCompleter{}, sink)

	result, err := svc.Ask(context.Background(), "tell me a joke")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgNoMatches {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseNoResults {
		t.Fatalf("expected one no_results event, got %+v", sink.queries)
	}
}

func TestAskRecommendUnparseableSelectionUsesFirstHit(t *testing.T) {
	corpus := testCorpus()
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return []string{corpus[4].Text(), corpus[0].Text()}, nil
	}}
	completer := &fakeCompleter{reply: "7, banana"}
	svc := newTestAsk(corpus, searcher, completer, &fakeSink{})

	result, err := svc.Ask(context.Background(), "tell me a joke")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Jokes) != 1 || result.Jokes[0].SourceID != "5" {
		t.Errorf("expected first search hit as fallback, got %+v", result.Jokes)
	}
}

func TestAskRecommendLLMFailureFallsBackToSearch(t *testing.T) {
	corpus := testCorpus()
	searcher := &fakeSearcher{queryFn: func(_ string, k int) ([]string, error) {
		return []string{corpus[0].Text(), corpus[5].Text()}, nil
	}}
	completer := &fakeCompleter{err: errors.New("timeout")}
	sink := &fakeSink{}
	svc := newTestAsk(corpus, searcher, completer, sink)

	result, err := svc.Ask(context.Background(), "tell me a joke about cats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgFound {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 2 {
		t.Errorf("expected 2 fallback jokes, got %d", len(result.Jokes))
	}

	// First query k=5, fallback re-query k=3
	if len(searcher.ks) != 2 || searcher.ks[0] != 5 || searcher.ks[1] != 3 {
		t.Errorf("expected queries with k=5 then k=3, got %v", searcher.ks)
	}

	if len(sink.llmFailures) != 1 {
		t.Fatalf("expected 1 llm failure event, got %d", len(sink.llmFailures))
	}
	failure := sink.llmFailures[0]
	if failure.ErrorType != "llm_selection_error" {
		t.Errorf("unexpected error_type: %q", failure.ErrorType)
	}
	if failure.FallbackUsed != "chromadb_direct" {
		t.Errorf("unexpected fallback_used: %q", failure.FallbackUsed)
	}

	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseSuccess {
		t.Fatalf("expected one success event, got %+v", sink.queries)
	}
}

func TestAskRecommendFallbackSuccessWithZeroJokes(t *testing.T) {
	calls := 0
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"some candidate"}, nil
		}
		return []string{"text that reconciles to nothing"}, nil
	}}
	completer := &fakeCompleter{err: errors.New("timeout")}
	sink := &fakeSink{}
	svc := newTestAsk(testCorpus(), searcher, completer, sink)

	result, err := svc.Ask(context.Background(), "tell me a joke")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The fallback reports success even when nothing reconciles
	if result.Response != msgFound {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 0 {
		t.Errorf("expected 0 jokes, got %d", len(result.Jokes))
	}
	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseSuccess {
		t.Fatalf("expected success event, got %+v", sink.queries)
	}
	if sink.queries[0].JokesCount != 0 {
		t.Errorf("expected jokes_count 0, got %d", sink.queries[0].JokesCount)
	}
}

func TestAskRecommendTotalFailureReturnsRandomJoke(t *testing.T) {
	corpus := testCorpus()
	searcher := &fakeSearcher{queryFn: func(string, int) ([]string, error) {
		return nil, errors.New("index down")
	}}
	sink := &fakeSink{}
	svc := newTestAsk(corpus, searcher, &fakeCompleter{}, sink)

	result, err := svc.Ask(context.Background(), "tell me a joke")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Response != msgRandomInstead {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if len(result.Jokes) != 1 {
		t.Fatalf("expected exactly one random joke, got %d", len(result.Jokes))
	}
	found := false
	for _, j := range corpus {
		if j.SourceID == result.Jokes[0].SourceID {
			found = true
			break
		}
	}
	if !found {
		t.Error("random joke not from corpus")
	}

	// A search failure inside the primary path counts as a model failure
	if len(sink.llmFailures) != 1 {
		t.Fatalf("expected 1 llm failure event, got %d", len(sink.llmFailures))
	}
	if len(sink.queries) != 1 || sink.queries[0].ResponseType != domain.ResponseError {
		t.Fatalf("expected one error event, got %+v", sink.queries)
	}
	if sink.queries[0].Error == nil || *sink.queries[0].Error == "" {
		t.Error("expected error message on the event")
	}
}

func TestReconcileDropsUnmatchedAndPreservesOrder(t *testing.T) {
	corpus := testCorpus()
	docs := []string{
		corpus[2].Text(), // twopart joins setup and delivery
		"no such joke",
		corpus[4].Text(),
	}

	matched := reconcile(docs, corpus)
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	if matched[0].SourceID != "3" || matched[1].SourceID != "5" {
		t.Errorf("wrong order: %s, %s", matched[0].SourceID, matched[1].SourceID)
	}
}
