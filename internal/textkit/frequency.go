package textkit

import (
	"sort"

	"github.com/tmorling/wordsieve/internal/models"
)

// Aggregate collapses a stream of accepted, lowercased words into
// word/count pairs sorted by descending count. Ties are broken
// alphabetically so the output is deterministic for a given input.
func Aggregate(words []string) []models.WordCandidate {
	freq := make(map[string]int64, len(words))
	for _, w := range words {
		freq[w]++
	}

	out := make([]models.WordCandidate, 0, len(freq))
	for w, n := range freq {
		out = append(out, models.WordCandidate{Word: w, Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})

	return out
}
