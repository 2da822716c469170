package services

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two normalized strings from 0 (nothing alike) to 100
// (identical) using Levenshtein distance relative to the longer string.
// The score is symmetric. Two empty strings score 0.
func Similarity(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// Ratio is Similarity expressed on a 0..1 scale.
func Ratio(a, b string) float64 {
	return float64(Similarity(a, b)) / 100
}
