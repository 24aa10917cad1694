package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VersionStore = (*VersionStore)(nil)

// VersionStore implements driven.VersionStore using PostgreSQL
type VersionStore struct {
	db *DB
}

// NewVersionStore creates a new VersionStore
func NewVersionStore(db *DB) *VersionStore {
	return &VersionStore{db: db}
}

const versionColumns = `id, title_number, content, word_count, amendment_date, effective_date,
	published_date, authority, source, created_at`

// Create inserts a version and its citations in one transaction
func (s *VersionStore) Create(ctx context.Context, version *domain.Version) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO versions (`+versionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			version.ID,
			version.TitleNumber,
			version.Content,
			version.WordCount,
			NullTime(version.AmendmentDate),
			NullTime(version.EffectiveDate),
			NullTime(version.PublishedDate),
			version.Authority,
			version.Source,
			version.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert version %s: %w", version.ID, err)
		}

		for _, c := range version.Citations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO citations (id, version_id, volume, page, date, type, url)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				c.ID, version.ID, c.Volume, c.Page, NullTime(c.Date), c.Type, c.URL)
			if err != nil {
				return fmt.Errorf("insert citation %d FR %d: %w", c.Volume, c.Page, err)
			}
		}
		return nil
	})
}

// CreateChange inserts one change row
func (s *VersionStore) CreateChange(ctx context.Context, change *domain.Change) error {
	query := `
		INSERT INTO changes (id, version_id, type, section, description, fr_volume, fr_page, fr_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		change.ID,
		change.VersionID,
		string(change.Type),
		change.Section,
		change.Description,
		NullInt(change.FRVolume),
		NullInt(change.FRPage),
		NullTime(change.FRDate),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("change for version %s: %w", change.VersionID, domain.ErrNotFound)
	}
	return err
}

// FillContent sets the content and word count of a version
func (s *VersionStore) FillContent(ctx context.Context, versionID, content string, wordCount int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE versions SET content = $2, word_count = $3 WHERE id = $1`,
		versionID, content, wordCount)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Latest returns the newest version of a title by amendment date
func (s *VersionStore) Latest(ctx context.Context, titleNumber int) (*domain.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE title_number = $1
		ORDER BY amendment_date DESC NULLS LAST, created_at DESC
		LIMIT 1
	`

	versions, err := s.query(ctx, query, titleNumber)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, domain.ErrNotFound
	}
	return versions[0], nil
}

// ListByTitle returns versions of a title with their citations and changes,
// newest first
func (s *VersionStore) ListByTitle(ctx context.Context, titleNumber int) ([]*domain.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE title_number = $1
		ORDER BY amendment_date DESC NULLS LAST, created_at DESC
	`

	versions, err := s.query(ctx, query, titleNumber)
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// Count returns the number of stored versions
func (s *VersionStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.db, "versions")
}

func (s *VersionStore) query(ctx context.Context, query string, args ...any) ([]*domain.Version, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.Version
	for rows.Next() {
		var v domain.Version
		var amended, effective, published sql.NullTime

		err := rows.Scan(
			&v.ID,
			&v.TitleNumber,
			&v.Content,
			&v.WordCount,
			&amended,
			&effective,
			&published,
			&v.Authority,
			&v.Source,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		v.AmendmentDate = TimePtr(amended)
		v.EffectiveDate = TimePtr(effective)
		v.PublishedDate = TimePtr(published)
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}

func (s *VersionStore) loadChildren(ctx context.Context, versions []*domain.Version) error {
	if len(versions) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Version, len(versions))
	ids := make([]string, 0, len(versions))
	for _, v := range versions {
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version_id, volume, page, date, type, url
		FROM citations WHERE version_id = ANY($1)
		ORDER BY volume, page`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load citations: %w", err)
	}
	for rows.Next() {
		var c domain.Citation
		var date sql.NullTime
		if err := rows.Scan(&c.ID, &c.VersionID, &c.Volume, &c.Page, &date, &c.Type, &c.URL); err != nil {
			rows.Close()
			return err
		}
		c.Date = TimePtr(date)
		byID[c.VersionID].Citations = append(byID[c.VersionID].Citations, &c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, version_id, type, section, description, fr_volume, fr_page, fr_date
		FROM changes WHERE version_id = ANY($1)
		ORDER BY section`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load changes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Change
		var volume, page sql.NullInt64
		var date sql.NullTime
		if err := rows.Scan(&c.ID, &c.VersionID, &c.Type, &c.Section, &c.Description, &volume, &page, &date); err != nil {
			return err
		}
		c.FRVolume = IntPtr(volume)
		c.FRPage = IntPtr(page)
		c.FRDate = TimePtr(date)
		byID[c.VersionID].Changes = append(byID[c.VersionID].Changes, &c)
	}
	return rows.Err()
}
