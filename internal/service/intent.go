package service

import (
	"regexp"
	"strings"
)

// Intent represents the type of user query intent.
type Intent string

const (
	IntentCounting  Intent = "counting"  // "how many X jokes do you have"
	IntentExistence Intent = "existence" // "are there any jokes about X?"
	IntentRecommend Intent = "recommend" // everything else
)

var countTopicPattern = regexp.MustCompile(`how many (\w+)`)

// existenceCues only fire when the message is phrased as a question.
var existenceCues = []string{"are there", "do you have", "is there", "any"}

// ClassifyIntent determines the query intent from surface cues.
// Counting cues win over existence cues when both are present.
// Parameters:
//   - message: the user's raw message.
// Returns:
//   - Intent: counting, existence, or recommend.
func ClassifyIntent(message string) Intent {
	lowered := strings.ToLower(message)

	if strings.Contains(lowered, "how many") || strings.Contains(lowered, "count") {
		return IntentCounting
	}

	if strings.HasSuffix(strings.TrimSpace(message), "?") {
		for _, cue := range existenceCues {
			if strings.Contains(lowered, cue) {
				return IntentExistence
			}
		}
	}

	return IntentRecommend
}

// ExtractCountTopic extracts a counting topic without the language model.
// Used when the model call fails.
// Parameters:
//   - message: the user's raw message.
// Returns:
//   - string: the word following "how many", or "unknown" if absent.
func ExtractCountTopic(message string) string {
	match := countTopicPattern.FindStringSubmatch(strings.ToLower(message))
	if match == nil {
		return "unknown"
	}
	return match[1]
}
