package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voyago/tripweaver/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  types.Intent
	}{
		{"booking verb", "book me a flight", types.IntentBook},
		{"reserve", "reserve a table for two", types.IntentBook},
		{"event noun", "any concerts this weekend?", types.IntentEvents},
		{"festival", "festival recommendations", types.IntentEvents},
		{"question mark", "is tap water safe?", types.IntentInfo},
		{"interrogative word", "where should I eat", types.IntentInfo},
		{"default plan", "3 days in Rome", types.IntentPlan},
		{"empty query", "", types.IntentPlan},
		{"case insensitive", "BOOK a hotel", types.IntentBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// Booking verbs outrank event nouns, which outrank question markers.
	assert.Equal(t, types.IntentBook, Classify("book tickets for the concert?"))
	assert.Equal(t, types.IntentEvents, Classify("what shows are on?"))
}
