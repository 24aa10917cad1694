package analysis

import (
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// ContextRadius is the number of characters kept on each side of a match.
const ContextRadius = 100

type referencePattern struct {
	name string
	re   *regexp.Regexp
}

var referencePatterns = []referencePattern{
	{"cfr_citation", regexp.MustCompile(`\b\d+\s+C\.?F\.?R\.?\s+(?:[Pp]art\s+)?\d+(?:\.\d+)?`)},
	{"title_part", regexp.MustCompile(`(?i)\bTitle\s+\d+,?\s+Part\s+\d+`)},
	{"section", regexp.MustCompile(`§+\s*\d+\.\d+`)},
	{"chapter", regexp.MustCompile(`\bChapter\s+(?:[IVXLCDM]+|\d+)\b`)},
	{"subpart", regexp.MustCompile(`\bSubpart\s+[A-Z]{1,3}\b`)},
}

// ExtractReferences scans text with every reference pattern and emits one
// reference per match. Each reference targets selfID: cross-title
// resolution is not implemented, so every reference is INTERNAL.
func ExtractReferences(text, selfID string) []*domain.Reference {
	var refs []*domain.Reference
	for _, p := range referencePatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			refs = append(refs, &domain.Reference{
				ID:              uuid.NewString(),
				SourceVersionID: selfID,
				TargetVersionID: selfID,
				Pattern:         p.name,
				Match:           text[loc[0]:loc[1]],
				Context:         contextWindow(text, loc[0], loc[1]),
				Type:            domain.ReferenceTypeInternal,
			})
		}
	}
	return refs
}

// contextWindow returns the match plus surrounding text, at most
// 2*ContextRadius+1 characters unless the match alone is longer.
func contextWindow(text string, start, end int) string {
	matchLen := utf8.RuneCountInString(text[start:end])
	pad := (2*ContextRadius + 1 - matchLen) / 2
	if pad < 0 {
		pad = 0
	}

	for i := 0; i < pad && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for i := 0; i < pad && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}

// CountByPattern tallies references per pattern name.
func CountByPattern(refs []*domain.Reference) map[string]int {
	out := make(map[string]int)
	for _, r := range refs {
		out[r.Pattern]++
	}
	return out
}
