package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstringMatch(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		scanned  string
		want     bool
	}{
		{"exact", "Z1-12", "Z1-12", true},
		{"case and spaces", " z1-12", "Z1-12 ", true},
		{"zone prefix", "Z1-12", "Z1", true},
		{"slot only", "Z1-12", "12", true},
		{"other zone", "Z1-12", "Z2", false},
		{"longer than expected", "Z1-12", "Z1-120", false},
		{"empty scan", "Z1-12", "", false},
		{"blank scan", "Z1-12", "   ", false},
		// lenient by design of the shelf labels: a shorter neighbour slot is accepted
		{"false accept of neighbour slot", "Z1-120", "Z1-12", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubstringMatch(tt.expected, tt.scanned))
		})
	}
}

func TestExactMatch(t *testing.T) {
	assert.True(t, ExactMatch("Z1-12", " z1-12 "))
	assert.False(t, ExactMatch("Z1-120", "Z1-12"))
	assert.False(t, ExactMatch("Z1-12", "Z1"))
	assert.False(t, ExactMatch("", ""))
}

func TestMatcherByName(t *testing.T) {
	assert.False(t, MatcherByName("exact")("Z1-12", "Z1"))
	assert.False(t, MatcherByName(" EXACT ")("Z1-12", "Z1"))
	assert.True(t, MatcherByName("substring")("Z1-12", "Z1"))
	assert.True(t, MatcherByName("")("Z1-12", "Z1"))
}

func TestTargetLocation(t *testing.T) {
	assert.Equal(t, "Z1-12", TargetLocation(" z1 ", "12"))
	assert.Equal(t, "A-03B", TargetLocation("a", "03b"))
}
