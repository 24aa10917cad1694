package driving

import (
	"context"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// IngestService drives a full ingestion run.
type IngestService interface {
	// Run ingests every agency and title, resuming from the stored checkpoint
	// unless opts.Fresh is set
	Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error)

	// Status reports the checkpoint and stored row counts
	Status(ctx context.Context) (*domain.IngestStatus, error)

	// Reset wipes all domain data and clears the checkpoint
	Reset(ctx context.Context) error
}

// ProgressReporter receives run progress events. Implementations must be
// safe for concurrent use.
type ProgressReporter interface {
	// AgencyStarted is called before an agency's titles are processed
	AgencyStarted(slug string, index, total int)

	// TitleDone is called after each title unit of work
	TitleDone(slug string, titleNumber int, err error)
}
