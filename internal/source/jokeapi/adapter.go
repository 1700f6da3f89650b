package jokeapi

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/marvin/jokebot/internal/source"
)

const (
	SourceID   = "jokeapi"
	SourceName = "JokeAPI"

	defaultBaseURL = "https://v2.jokeapi.dev"

	// Flags excluded at fetch time so the corpus never contains them.
	blacklistFlags = "nsfw,religious,political,racist,sexist,explicit"

	// JokeAPI caps amount at 10 per request.
	maxBatchSize = 10
)

// Adapter implements the Source interface for JokeAPI
type Adapter struct {
	client  *resty.Client
	baseURL string
}

// NewAdapter creates a new JokeAPI adapter.
// Parameters:
//   - baseURL: API base URL; empty selects the public endpoint.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		client:  resty.New(),
		baseURL: baseURL,
	}
}

// GetSourceID returns the unique identifier for this source
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// GetDisplayName returns a human-readable name for this source
func (a *Adapter) GetDisplayName() string {
	return SourceName
}

// apiJoke matches one joke object in the JokeAPI response.
type apiJoke struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Joke     string `json:"joke"`
	Setup    string `json:"setup"`
	Delivery string `json:"delivery"`
	ID       int    `json:"id"`
	Safe     bool   `json:"safe"`
}

// apiResponse covers both shapes the API returns: a "jokes" array when
// amount > 1, or a single joke object inlined at the top level.
type apiResponse struct {
	Error   bool      `json:"error"`
	Message string    `json:"message"`
	Amount  int       `json:"amount"`
	Jokes   []apiJoke `json:"jokes"`
	apiJoke
}

// FetchBatch fetches up to limit jokes. The API samples randomly, so
// batches may overlap across calls.
func (a *Adapter) FetchBatch(ctx context.Context, limit int) ([]source.JokeItem, error) {
	if limit <= 0 || limit > maxBatchSize {
		limit = maxBatchSize
	}

	var resp apiResponse
	httpResp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"blacklistFlags": blacklistFlags,
			"amount":         fmt.Sprintf("%d", limit),
		}).
		SetResult(&resp).
		Get(a.baseURL + "/joke/Any")

	if err != nil {
		return nil, fmt.Errorf("failed to call JokeAPI: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		return nil, fmt.Errorf("JokeAPI error: status %d", httpResp.StatusCode())
	}

	if resp.Error {
		return nil, fmt.Errorf("JokeAPI error: %s", resp.Message)
	}

	raw := resp.Jokes
	if len(raw) == 0 && (resp.Joke != "" || resp.Setup != "") {
		raw = []apiJoke{resp.apiJoke}
	}

	items := make([]source.JokeItem, 0, len(raw))
	for _, j := range raw {
		items = append(items, source.JokeItem{
			SourceID: j.ID,
			Category: j.Category,
			Kind:     j.Type,
			Joke:     j.Joke,
			Setup:    j.Setup,
			Delivery: j.Delivery,
		})
	}

	return items, nil
}
