package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Counting Prompts (LLM)
// ============================================================================

// countTopicTemplate extracts a single lowercase category or topic word
// from a counting question. The model must answer with the bare word only,
// or "unknown" when the question gives no usable topic.
const countTopicTemplate = `Analyze this question: "%s"

The user is asking about the count of jokes in a specific category or topic.
Based on the question, what category or topic are they asking about?
Return ONLY the category/topic name (e.g., "physics", "programming", "christmas", "misc").
If unclear, return "unknown".`

// BuildCountTopicPrompt builds the topic-extraction prompt for a counting
// question.
// Parameters:
//   - message: the user's raw message.
// Returns:
//   - string: the complete prompt to send to the language model.
func BuildCountTopicPrompt(message string) string {
	return fmt.Sprintf(countTopicTemplate, message)
}

// ============================================================================
// Recommendation Prompts (LLM)
// ============================================================================

// recommendTemplate asks the model to pick joke numbers from a candidate
// list. The model must answer with comma-separated 1-based numbers, or
// "none" when nothing fits.
const recommendTemplate = `You are a helpful assistant that recommends jokes based on user requests.

User request: %s

Here are some relevant jokes from the collection:
%s

Based on the user's request, select the joke number(s) that best match what they're asking for.
Return ONLY the joke number(s) separated by commas (e.g., "1" or "1,3,5").
If none match well, return "none".`

// BuildRecommendPrompt builds the disambiguation prompt for a
// recommendation query.
// Parameters:
//   - message: the user's raw message.
//   - docs: candidate joke texts in retrieval order.
// Returns:
//   - string: the complete prompt, with candidates numbered from 1.
func BuildRecommendPrompt(message string, docs []string) string {
	numbered := make([]string, len(docs))
	for i, doc := range docs {
		numbered[i] = fmt.Sprintf("Joke %d: %s", i+1, doc)
	}
	return fmt.Sprintf(recommendTemplate, message, strings.Join(numbered, "\n\n"))
}
