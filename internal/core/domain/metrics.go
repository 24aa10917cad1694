package domain

import "math"

// TextMetrics holds word and sentence statistics for one version.
// Averages are NaN when the text has no words or no sentences.
type TextMetrics struct {
	VersionID         string  `json:"version_id"`
	WordCount         int     `json:"word_count"`
	UniqueWordCount   int     `json:"unique_word_count"`
	AvgWordLength     float64 `json:"avg_word_length"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
}

// Defined reports whether both averages are finite.
func (m *TextMetrics) Defined() bool {
	return isFinite(m.AvgWordLength) && isFinite(m.AvgSentenceLength)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ReferenceType tags a Reference.
type ReferenceType string

const (
	ReferenceTypeInternal ReferenceType = "INTERNAL"
	ReferenceTypeExternal ReferenceType = "EXTERNAL"
)

// Reference is a directed cross-citation between two versions.
type Reference struct {
	ID              string        `json:"id"`
	SourceVersionID string        `json:"source_version_id"`
	TargetVersionID string        `json:"target_version_id"`
	Pattern         string        `json:"pattern"`
	Match           string        `json:"match"`
	Context         string        `json:"context"`
	Type            ReferenceType `json:"type"`
}

// WordDiff is a best-effort word-level comparison of two texts.
type WordDiff struct {
	Added    []string `json:"added"`
	Deleted  []string `json:"deleted"`
	Modified []string `json:"modified"`
}

// Counts returns the sizes of the three lists.
func (d *WordDiff) Counts() (added, deleted, modified int) {
	return len(d.Added), len(d.Deleted), len(d.Modified)
}

// ProcessedContent is the analyzer output the metrics writer persists.
type ProcessedContent struct {
	Metrics    *TextMetrics
	References []*Reference
}

// MetricsResult summarises a metrics write.
type MetricsResult struct {
	ReferencesWritten int
	ReferencesFailed  int
}
