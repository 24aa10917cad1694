package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// RegulationSource is the read-only remote regulation API.
// Every call goes through one shared rate limiter and retry policy.
type RegulationSource interface {
	// ListAgencies returns the full agency list in remote order.
	ListAgencies(ctx context.Context) ([]*RemoteAgency, error)

	// ListTitles returns the full title index.
	ListTitles(ctx context.Context) ([]*domain.Title, error)

	// TitleVersions returns the version history of a title.
	TitleVersions(ctx context.Context, titleNumber int) ([]*domain.ContentVersion, error)

	// TitleContent fetches structure, full text and version history for a
	// title as of date. Returns an error matching domain.ErrNotFound when the
	// remote has no content.
	TitleContent(ctx context.Context, title *domain.Title, date time.Time) (*domain.TitleContent, error)
}

// RemoteAgency is an agency as listed remotely, with its title references.
// Children are flattened into the list with ParentSlug set.
type RemoteAgency struct {
	Agency     *domain.Agency
	References []TitleReference
}

// TitleReference points from an agency to a title (optionally a chapter).
type TitleReference struct {
	Title   int
	Chapter string
	Part    string
}
