package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"milk", "", 4},
		{"milk", "milk", 0},
		{"milk", "mlk", 1},
		{"kitten", "sitting", 3},
		{"MILK", "milk", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestFuzzyMatch(t *testing.T) {
	assert.True(t, FuzzyMatch("milk", "Buy milk", 1))
	assert.True(t, FuzzyMatch("mlk", "Buy milk", 1))
	assert.True(t, FuzzyMatch("groc", "Groceries for the week", 1))
	assert.False(t, FuzzyMatch("xyz", "Buy milk", 1))
}

func TestMatchAny(t *testing.T) {
	assert.True(t, MatchAny("cafe", "", "Meet at the Café"))
	assert.True(t, MatchAny("dentist", "Call dentsit"))
	assert.False(t, MatchAny("taxes", "Buy milk", "Walk dog"))
	assert.False(t, MatchAny("milk"))
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 1, Threshold("abc"))
	assert.Equal(t, 2, Threshold("groce"))
	assert.Equal(t, 3, Threshold("groceries"))
}

func TestScore(t *testing.T) {
	prefix := Score("milk", "Milk shake", "")
	word := Score("milk", "Buy milk", "")
	body := Score("milk", "Shopping", "eggs and milk")
	none := Score("milk", "Walk dog", "")

	assert.Greater(t, prefix, word)
	assert.Greater(t, word, body)
	assert.Greater(t, body, none)
	assert.Zero(t, Score("", "Buy milk", ""))
}
