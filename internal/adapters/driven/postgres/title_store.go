package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TitleStore = (*TitleStore)(nil)

// TitleStore implements driven.TitleStore using PostgreSQL
type TitleStore struct {
	db *DB
}

// NewTitleStore creates a new TitleStore
func NewTitleStore(db *DB) *TitleStore {
	return &TitleStore{db: db}
}

// Upsert creates or updates a title shell keyed on number
func (s *TitleStore) Upsert(ctx context.Context, title *domain.Title) error {
	query := `
		INSERT INTO titles (number, name, type, reserved, latest_amended_on, latest_issue_date, up_to_date_as_of, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (number) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			reserved = EXCLUDED.reserved,
			latest_amended_on = EXCLUDED.latest_amended_on,
			latest_issue_date = EXCLUDED.latest_issue_date,
			up_to_date_as_of = EXCLUDED.up_to_date_as_of,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		title.Number,
		title.Name,
		title.Type,
		title.Reserved,
		NullTime(title.LatestAmendedOn),
		NullTime(title.LatestIssueDate),
		NullTime(title.UpToDateAsOf),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert title %d: %w", title.Number, err)
	}
	return nil
}

// Get retrieves a title by number
func (s *TitleStore) Get(ctx context.Context, number int) (*domain.Title, error) {
	query := `
		SELECT number, name, type, reserved, latest_amended_on, latest_issue_date, up_to_date_as_of, updated_at
		FROM titles
		WHERE number = $1
	`

	var title domain.Title
	var amended, issued, upToDate sql.NullTime

	err := s.db.QueryRowContext(ctx, query, number).Scan(
		&title.Number,
		&title.Name,
		&title.Type,
		&title.Reserved,
		&amended,
		&issued,
		&upToDate,
		&title.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	title.LatestAmendedOn = TimePtr(amended)
	title.LatestIssueDate = TimePtr(issued)
	title.UpToDateAsOf = TimePtr(upToDate)
	return &title, nil
}

// Count returns the number of stored titles
func (s *TitleStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.db, "titles")
}
