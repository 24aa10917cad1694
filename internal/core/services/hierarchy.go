package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// HierarchyWriter swaps a title's whole structure subtree.
type HierarchyWriter struct {
	store  driven.HierarchyStore
	logger *slog.Logger
}

// NewHierarchyWriter creates a new HierarchyWriter.
func NewHierarchyWriter(store driven.HierarchyStore, logger *slog.Logger) *HierarchyWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HierarchyWriter{store: store, logger: logger}
}

// Replace assigns positional identifiers and replaces the stored subtree of
// titleNumber with structure.
func (w *HierarchyWriter) Replace(ctx context.Context, titleNumber int, structure *domain.Structure) error {
	if structure == nil {
		structure = &domain.Structure{}
	}
	structure.AssignIDs(titleNumber)

	if err := w.store.Replace(ctx, titleNumber, structure); err != nil {
		return fmt.Errorf("replace hierarchy of title %d: %w", titleNumber, err)
	}

	chapters, parts, subparts, sections := structure.Counts()
	w.logger.Debug("hierarchy replaced",
		"title_number", titleNumber,
		"chapters", chapters,
		"parts", parts,
		"subparts", subparts,
		"sections", sections,
	)
	return nil
}
