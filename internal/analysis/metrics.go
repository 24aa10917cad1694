// Package analysis computes text statistics, extracts cross-references and
// Federal Register citations, and diffs versions at word granularity.
package analysis

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Words splits text on whitespace.
func Words(text string) []string {
	return strings.Fields(text)
}

// WordCount returns the number of whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CalculateTextMetrics computes word and sentence statistics. With no words
// or no sentences the corresponding average is NaN; check Defined.
func CalculateTextMetrics(text string) *domain.TextMetrics {
	words := Words(text)

	unique := make(map[string]struct{}, len(words))
	totalLen := 0
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
		totalLen += utf8.RuneCountInString(w)
	}

	var sentenceWords []int
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		sentenceWords = append(sentenceWords, len(strings.Fields(s)))
	}
	totalSentenceWords := 0
	for _, n := range sentenceWords {
		totalSentenceWords += n
	}

	return &domain.TextMetrics{
		WordCount:         len(words),
		UniqueWordCount:   len(unique),
		AvgWordLength:     mean(totalLen, len(words)),
		AvgSentenceLength: mean(totalSentenceWords, len(sentenceWords)),
	}
}

func mean(total, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return float64(total) / float64(n)
}
