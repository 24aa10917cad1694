package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cfr-ingest/internal/analysis"
	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// MetricsWriter persists text metrics, references and agency activity.
type MetricsWriter struct {
	store   driven.MetricsStore
	metrics driven.IngestMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewMetricsWriter creates a new MetricsWriter.
func NewMetricsWriter(store driven.MetricsStore, metrics driven.IngestMetrics, logger *slog.Logger) *MetricsWriter {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsWriter{store: store, metrics: metrics, logger: logger, now: time.Now}
}

// ProcessMetrics writes the metrics row of a version, then each reference
// on its own. A failed reference is logged and counted; it never fails the
// batch.
func (w *MetricsWriter) ProcessMetrics(ctx context.Context, versionID string, content *domain.ProcessedContent) (*domain.MetricsResult, error) {
	result := &domain.MetricsResult{}
	if content == nil {
		return result, nil
	}

	if content.Metrics != nil {
		content.Metrics.VersionID = versionID
		if !content.Metrics.Defined() {
			w.logger.Debug("text metrics undefined", "version_id", versionID, "word_count", content.Metrics.WordCount)
		}
		if err := w.store.SaveTextMetrics(ctx, content.Metrics); err != nil {
			return nil, fmt.Errorf("save text metrics of version %s: %w", versionID, err)
		}
	}

	for _, ref := range content.References {
		if err := w.store.SaveReference(ctx, ref); err != nil {
			w.logger.Warn("failed to save reference",
				"version_id", versionID,
				"pattern", ref.Pattern,
				"match", ref.Match,
				"error", err,
			)
			w.metrics.ReferenceFailed()
			result.ReferencesFailed++
			continue
		}
		result.ReferencesWritten++
	}

	if len(content.References) > 0 {
		w.logger.Debug("references saved",
			"version_id", versionID,
			"by_pattern", analysis.CountByPattern(content.References),
			"failed", result.ReferencesFailed,
		)
	}
	return result, nil
}

// ProcessActivityMetrics writes an activity snapshot from two successive
// total word counts.
func (w *MetricsWriter) ProcessActivityMetrics(ctx context.Context, agencySlug string, titleNumber, oldTotal, newTotal int) (*domain.ActivityMetrics, error) {
	activity := domain.NewActivityMetrics(agencySlug, titleNumber, oldTotal, newTotal, w.now().UTC())
	activity.ID = uuid.NewString()

	if err := w.store.SaveActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("save activity of agency %s: %w", agencySlug, err)
	}
	return activity, nil
}

// RecordWordCount writes a dated total-word snapshot for an agency.
func (w *MetricsWriter) RecordWordCount(ctx context.Context, agencySlug string, titleNumber, total int) error {
	wc := &domain.WordCount{
		ID:          uuid.NewString(),
		AgencySlug:  agencySlug,
		TitleNumber: titleNumber,
		Date:        w.now().UTC(),
		TotalWords:  total,
	}
	if err := w.store.SaveWordCount(ctx, wc); err != nil {
		return fmt.Errorf("save word count of agency %s: %w", agencySlug, err)
	}
	return nil
}
