package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// AgencyStore persists agencies (PostgreSQL)
type AgencyStore interface {
	// Upsert creates or updates an agency keyed on slug
	Upsert(ctx context.Context, agency *domain.Agency) error

	// Get retrieves an agency by slug
	Get(ctx context.Context, slug string) (*domain.Agency, error)

	// Exists reports whether an agency with slug is stored
	Exists(ctx context.Context, slug string) (bool, error)

	// Count returns the number of stored agencies
	Count(ctx context.Context) (int, error)

	// LinkTitle associates an agency with a title
	LinkTitle(ctx context.Context, slug string, titleNumber int) error
}

// TitleStore persists title shells (PostgreSQL)
type TitleStore interface {
	// Upsert creates or updates a title keyed on number
	Upsert(ctx context.Context, title *domain.Title) error

	// Get retrieves a title by number
	Get(ctx context.Context, number int) (*domain.Title, error)

	// Count returns the number of stored titles
	Count(ctx context.Context) (int, error)
}

// HierarchyStore persists a title's chapter→part→subpart→section subtree.
type HierarchyStore interface {
	// Replace deletes the existing subtree of titleNumber leaf-to-root and
	// recreates it from structure top-down.
	Replace(ctx context.Context, titleNumber int, structure *domain.Structure) error

	// Get loads the subtree of a title
	Get(ctx context.Context, titleNumber int) (*domain.Structure, error)

	// CountSections returns the number of stored sections
	CountSections(ctx context.Context) (int, error)
}

// VersionStore persists versions, citations and changes.
type VersionStore interface {
	// Create inserts a version with empty content and its citations in one write
	Create(ctx context.Context, version *domain.Version) error

	// CreateChange inserts one change row
	CreateChange(ctx context.Context, change *domain.Change) error

	// FillContent sets the content and word count of a version
	FillContent(ctx context.Context, versionID, content string, wordCount int) error

	// Latest returns the newest version of a title by amendment date
	Latest(ctx context.Context, titleNumber int) (*domain.Version, error)

	// ListByTitle returns versions of a title, newest first
	ListByTitle(ctx context.Context, titleNumber int) ([]*domain.Version, error)

	// Count returns the number of stored versions
	Count(ctx context.Context) (int, error)
}

// MetricsStore persists derived text metrics.
type MetricsStore interface {
	// SaveTextMetrics writes the metrics row of a version
	SaveTextMetrics(ctx context.Context, metrics *domain.TextMetrics) error

	// SaveReference writes one reference edge
	SaveReference(ctx context.Context, ref *domain.Reference) error

	// SaveActivity writes one agency activity snapshot
	SaveActivity(ctx context.Context, activity *domain.ActivityMetrics) error

	// SaveWordCount writes one agency word-count snapshot
	SaveWordCount(ctx context.Context, wc *domain.WordCount) error
}

// CheckpointStore is the durable medium for the ingestion checkpoint.
type CheckpointStore interface {
	// Load returns the stored checkpoint, or nil when none exists
	Load(ctx context.Context) (*domain.Checkpoint, error)

	// Save overwrites the stored checkpoint as a whole
	Save(ctx context.Context, checkpoint *domain.Checkpoint) error

	// Clear removes the stored checkpoint
	Clear(ctx context.Context) error
}

// Maintenance wipes all domain tables (cleanup collaborator).
type Maintenance interface {
	// Wipe deletes all domain rows in dependency order
	Wipe(ctx context.Context) error
}

// IngestMetrics records ingestion telemetry. Implementations must be safe
// for concurrent use.
type IngestMetrics interface {
	ObserveRequest(endpoint string, status int, duration time.Duration)
	ObserveBackoff(reason string, delay time.Duration)
	AgencyProcessed()
	TitleProcessed(duration time.Duration, words int)
	UnitSkipped(kind string)
	ReferenceFailed()
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveRequest(string, int, time.Duration) {}
func (NopMetrics) ObserveBackoff(string, time.Duration)     {}
func (NopMetrics) AgencyProcessed()                         {}
func (NopMetrics) TitleProcessed(time.Duration, int)        {}
func (NopMetrics) UnitSkipped(string)                       {}
func (NopMetrics) ReferenceFailed()                         {}
