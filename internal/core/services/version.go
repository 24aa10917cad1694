package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// VersionWriter creates version snapshots with their citations and changes.
type VersionWriter struct {
	store  driven.VersionStore
	logger *slog.Logger
	now    func() time.Time
}

// NewVersionWriter creates a new VersionWriter.
func NewVersionWriter(store driven.VersionStore, logger *slog.Logger) *VersionWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &VersionWriter{store: store, logger: logger, now: time.Now}
}

// CreateVersion inserts a version with empty content plus its citations,
// then inserts every change independently. A failed change does not undo
// the others; each outcome is reported in the returned results.
func (w *VersionWriter) CreateVersion(ctx context.Context, titleNumber int, meta domain.VersionMeta) (*domain.Version, []domain.ChangeResult, error) {
	version := &domain.Version{
		ID:            uuid.NewString(),
		TitleNumber:   titleNumber,
		AmendmentDate: meta.AmendmentDate,
		EffectiveDate: meta.EffectiveDate,
		PublishedDate: meta.PublishedDate,
		Authority:     meta.Authority,
		Source:        meta.Source,
		CreatedAt:     w.now().UTC(),
	}
	for _, c := range meta.Citations {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.VersionID = version.ID
		version.Citations = append(version.Citations, c)
	}

	if err := w.store.Create(ctx, version); err != nil {
		return nil, nil, fmt.Errorf("create version of title %d: %w", titleNumber, err)
	}

	results := make([]domain.ChangeResult, len(meta.Changes))
	var wg sync.WaitGroup
	for i, change := range meta.Changes {
		if change.ID == "" {
			change.ID = uuid.NewString()
		}
		change.VersionID = version.ID

		wg.Add(1)
		go func(i int, change *domain.Change) {
			defer wg.Done()
			results[i] = domain.ChangeResult{Change: change, Err: w.store.CreateChange(ctx, change)}
		}(i, change)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err == nil {
			version.Changes = append(version.Changes, r.Change)
		}
	}
	return version, results, nil
}

// FillContent sets the content and word count of a freshly created version.
func (w *VersionWriter) FillContent(ctx context.Context, versionID, content string, wordCount int) error {
	if err := w.store.FillContent(ctx, versionID, content, wordCount); err != nil {
		return fmt.Errorf("fill content of version %s: %w", versionID, err)
	}
	return nil
}

// ChangeErrors joins the errors of failed change inserts, or returns nil.
func ChangeErrors(results []domain.ChangeResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("change %s (%s): %w", r.Change.Section, r.Change.Type, r.Err))
		}
	}
	return errors.Join(errs...)
}
