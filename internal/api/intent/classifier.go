package intent

import (
	"strings"

	"github.com/voyago/tripweaver/internal/types"
)

var (
	bookingVerbs  = []string{"book", "reserve", "ticket"}
	eventNouns    = []string{"event", "concert", "festival", "show"}
	interrogative = []string{"what", "how", "when", "where", "is", "do", "can"}
)

// Classify maps a free-text query to an intent with a keyword heuristic,
// avoiding an LLM round-trip. First match wins: booking verbs, then event
// nouns, then question markers, otherwise plan.
func Classify(query string) types.Intent {
	q := strings.ToLower(query)

	if containsAny(q, bookingVerbs) {
		return types.IntentBook
	}
	if containsAny(q, eventNouns) {
		return types.IntentEvents
	}
	if strings.Contains(q, "?") || containsAny(q, interrogative) {
		return types.IntentInfo
	}
	return types.IntentPlan
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
