package postgres

import (
	"context"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MetricsStore = (*MetricsStore)(nil)

// MetricsStore implements driven.MetricsStore using PostgreSQL
type MetricsStore struct {
	db *DB
}

// NewMetricsStore creates a new MetricsStore
func NewMetricsStore(db *DB) *MetricsStore {
	return &MetricsStore{db: db}
}

// SaveTextMetrics writes the metrics row of a version. Undefined averages
// are stored as NULL.
func (s *MetricsStore) SaveTextMetrics(ctx context.Context, m *domain.TextMetrics) error {
	query := `
		INSERT INTO text_metrics (version_id, word_count, unique_word_count, avg_word_length, avg_sentence_length)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (version_id) DO UPDATE SET
			word_count = EXCLUDED.word_count,
			unique_word_count = EXCLUDED.unique_word_count,
			avg_word_length = EXCLUDED.avg_word_length,
			avg_sentence_length = EXCLUDED.avg_sentence_length
	`

	_, err := s.db.ExecContext(ctx, query,
		m.VersionID,
		m.WordCount,
		m.UniqueWordCount,
		NullFloat(m.AvgWordLength),
		NullFloat(m.AvgSentenceLength),
	)
	return err
}

// SaveReference writes one reference edge
func (s *MetricsStore) SaveReference(ctx context.Context, ref *domain.Reference) error {
	query := `
		INSERT INTO version_references (id, source_version_id, target_version_id, pattern, match, context, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		ref.ID,
		ref.SourceVersionID,
		ref.TargetVersionID,
		ref.Pattern,
		ref.Match,
		ref.Context,
		string(ref.Type),
	)
	return err
}

// SaveActivity writes one agency activity snapshot
func (s *MetricsStore) SaveActivity(ctx context.Context, a *domain.ActivityMetrics) error {
	query := `
		INSERT INTO activity_metrics (id, agency_slug, title_number, date, new_words, modified_words, deleted_words, total_words)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.AgencySlug,
		a.TitleNumber,
		a.Date,
		a.NewWords,
		a.ModifiedWords,
		a.DeletedWords,
		a.TotalWords,
	)
	return err
}

// SaveWordCount writes one agency word-count snapshot
func (s *MetricsStore) SaveWordCount(ctx context.Context, wc *domain.WordCount) error {
	query := `
		INSERT INTO word_counts (id, agency_slug, title_number, date, total_words)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query, wc.ID, wc.AgencySlug, wc.TitleNumber, wc.Date, wc.TotalWords)
	return err
}
