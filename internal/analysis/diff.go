package analysis

import "github.com/custodia-labs/cfr-ingest/internal/core/domain"

// CompareVersions diffs two texts at word level. Added and deleted are set
// differences; modified holds words present in both whose first position
// moved. Each list keeps first-seen order and holds no duplicates.
func CompareVersions(oldText, newText string) *domain.WordDiff {
	oldWords := Words(oldText)
	newWords := Words(newText)

	oldFirst := firstIndex(oldWords)
	newFirst := firstIndex(newWords)

	diff := &domain.WordDiff{
		Added:    []string{},
		Deleted:  []string{},
		Modified: []string{},
	}

	seen := make(map[string]bool)
	for _, w := range newWords {
		if seen[w] {
			continue
		}
		seen[w] = true
		oi, inOld := oldFirst[w]
		switch {
		case !inOld:
			diff.Added = append(diff.Added, w)
		case oi != newFirst[w]:
			diff.Modified = append(diff.Modified, w)
		}
	}

	seen = make(map[string]bool)
	for _, w := range oldWords {
		if seen[w] {
			continue
		}
		seen[w] = true
		if _, inNew := newFirst[w]; !inNew {
			diff.Deleted = append(diff.Deleted, w)
		}
	}
	return diff
}

func firstIndex(words []string) map[string]int {
	out := make(map[string]int, len(words))
	for i, w := range words {
		if _, ok := out[w]; !ok {
			out[w] = i
		}
	}
	return out
}
