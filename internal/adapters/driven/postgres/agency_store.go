package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AgencyStore = (*AgencyStore)(nil)

// AgencyStore implements driven.AgencyStore using PostgreSQL
type AgencyStore struct {
	db *DB
}

// NewAgencyStore creates a new AgencyStore
func NewAgencyStore(db *DB) *AgencyStore {
	return &AgencyStore{db: db}
}

// Upsert creates or updates an agency keyed on slug
func (s *AgencyStore) Upsert(ctx context.Context, agency *domain.Agency) error {
	query := `
		INSERT INTO agencies (slug, name, short_name, display_name, sortable_name, parent_slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			short_name = EXCLUDED.short_name,
			display_name = EXCLUDED.display_name,
			sortable_name = EXCLUDED.sortable_name,
			parent_slug = EXCLUDED.parent_slug,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		agency.Slug,
		agency.Name,
		agency.ShortName,
		agency.DisplayName,
		agency.SortableName,
		NullString(agency.ParentSlug),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert agency %s: %w", agency.Slug, err)
	}
	return nil
}

// Get retrieves an agency by slug with its linked title numbers
func (s *AgencyStore) Get(ctx context.Context, slug string) (*domain.Agency, error) {
	query := `
		SELECT a.slug, a.name, a.short_name, a.display_name, a.sortable_name, a.parent_slug,
		       a.created_at, a.updated_at,
		       ARRAY(SELECT at.title_number FROM agency_titles at
		             WHERE at.agency_slug = a.slug ORDER BY at.title_number)
		FROM agencies a
		WHERE a.slug = $1
	`

	var agency domain.Agency
	var parent sql.NullString
	var titles pq.Int64Array

	err := s.db.QueryRowContext(ctx, query, slug).Scan(
		&agency.Slug,
		&agency.Name,
		&agency.ShortName,
		&agency.DisplayName,
		&agency.SortableName,
		&parent,
		&agency.CreatedAt,
		&agency.UpdatedAt,
		&titles,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	agency.ParentSlug = StringPtr(parent)
	for _, n := range titles {
		agency.TitleNumbers = append(agency.TitleNumbers, int(n))
	}
	return &agency, nil
}

// Exists reports whether an agency with slug is stored
func (s *AgencyStore) Exists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM agencies WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// Count returns the number of stored agencies
func (s *AgencyStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.db, "agencies")
}

// LinkTitle associates an agency with a title. Linking twice is a no-op.
func (s *AgencyStore) LinkTitle(ctx context.Context, slug string, titleNumber int) error {
	query := `
		INSERT INTO agency_titles (agency_slug, title_number)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query, slug, titleNumber)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("link agency %s to title %d: %w", slug, titleNumber, domain.ErrNotFound)
	}
	return err
}

// count returns the row count of a fixed table name
func count(ctx context.Context, db *DB, table string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
