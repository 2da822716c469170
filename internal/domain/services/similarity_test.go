package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "identical", a: "john smith", b: "john smith", expected: 100},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "one empty", a: "john smith", b: "", expected: 0},
		{name: "nothing in common", a: "abc", b: "xyz", expected: 0},
		{name: "three edits over twenty runes", a: "margaret ann whitley", b: "margaret ann whitmor", expected: 85},
		{name: "four edits over twenty five runes", a: "margaret ann whitley wood", b: "margaret ann whitley park", expected: 84},
		{name: "length difference counts", a: "j smith", b: "john smith", expected: 70},
		{name: "runes not bytes", a: "jose", b: "josé", expected: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"gulf anglers", "gulf anglers association"},
		{"snapper-grouper-amendment-56", "snapper-grouper-amendment-57"},
		{"j smith", "john smith"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 0.85, Ratio("margaret ann whitley", "margaret ann whitmor"), 1e-9)
	assert.InDelta(t, 1.0, Ratio("a", "a"), 1e-9)
	assert.InDelta(t, 0.0, Ratio("", "a"), 1e-9)
}
