package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HierarchyStore = (*HierarchyStore)(nil)

// HierarchyStore implements driven.HierarchyStore using PostgreSQL.
// A title's subtree is swapped inside one transaction.
type HierarchyStore struct {
	db *DB
}

// NewHierarchyStore creates a new HierarchyStore
func NewHierarchyStore(db *DB) *HierarchyStore {
	return &HierarchyStore{db: db}
}

// Leaf-to-root delete statements scoped to one title.
var deleteHierarchy = []string{
	`DELETE FROM sections WHERE subpart_id IN (
		SELECT sp.id FROM subparts sp
		JOIN parts p ON p.id = sp.part_id
		JOIN chapters c ON c.id = p.chapter_id
		WHERE c.title_number = $1)`,
	`DELETE FROM subparts WHERE part_id IN (
		SELECT p.id FROM parts p
		JOIN chapters c ON c.id = p.chapter_id
		WHERE c.title_number = $1)`,
	`DELETE FROM parts WHERE chapter_id IN (
		SELECT c.id FROM chapters c WHERE c.title_number = $1)`,
	`DELETE FROM chapters WHERE title_number = $1`,
}

// Replace deletes the existing subtree of titleNumber and recreates it from
// structure top-down. Node IDs must already be assigned.
func (s *HierarchyStore) Replace(ctx context.Context, titleNumber int, structure *domain.Structure) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range deleteHierarchy {
			if _, err := tx.ExecContext(ctx, stmt, titleNumber); err != nil {
				return fmt.Errorf("delete hierarchy of title %d: %w", titleNumber, err)
			}
		}
		if structure == nil {
			return nil
		}
		return insertStructure(ctx, tx, titleNumber, structure)
	})
}

func insertStructure(ctx context.Context, tx execer, titleNumber int, structure *domain.Structure) error {
	for _, c := range structure.Chapters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chapters (id, title_number, number, name) VALUES ($1, $2, $3, $4)`,
			c.ID, titleNumber, c.Number, c.Name)
		if err != nil {
			return fmt.Errorf("insert chapter %s: %w", c.ID, err)
		}

		for _, p := range c.Parts {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO parts (id, chapter_id, number, name) VALUES ($1, $2, $3, $4)`,
				p.ID, c.ID, p.Number, p.Name)
			if err != nil {
				return fmt.Errorf("insert part %s: %w", p.ID, err)
			}

			for _, sp := range p.Subparts {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO subparts (id, part_id, name) VALUES ($1, $2, $3)`,
					sp.ID, p.ID, sp.Name)
				if err != nil {
					return fmt.Errorf("insert subpart %s: %w", sp.ID, err)
				}

				for _, sec := range sp.Sections {
					_, err := tx.ExecContext(ctx, `
						INSERT INTO sections (id, subpart_id, number, name, content) VALUES ($1, $2, $3, $4, $5)`,
						sec.ID, sp.ID, sec.Number, sec.Name, sec.Content)
					if err != nil {
						return fmt.Errorf("insert section %s: %w", sec.ID, err)
					}
				}
			}
		}
	}
	return nil
}

// Get loads the subtree of a title. Missing titles yield an empty structure.
func (s *HierarchyStore) Get(ctx context.Context, titleNumber int) (*domain.Structure, error) {
	structure := &domain.Structure{}
	chapters := make(map[string]*domain.Chapter)
	parts := make(map[string]*domain.Part)
	subparts := make(map[string]*domain.Subpart)

	err := s.scan(ctx, `
		SELECT id, number, name FROM chapters
		WHERE title_number = $1 ORDER BY number`, titleNumber,
		func(rows *sql.Rows) error {
			c := &domain.Chapter{}
			if err := rows.Scan(&c.ID, &c.Number, &c.Name); err != nil {
				return err
			}
			chapters[c.ID] = c
			structure.Chapters = append(structure.Chapters, c)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = s.scan(ctx, `
		SELECT p.id, p.chapter_id, p.number, p.name FROM parts p
		JOIN chapters c ON c.id = p.chapter_id
		WHERE c.title_number = $1 ORDER BY p.number`, titleNumber,
		func(rows *sql.Rows) error {
			p := &domain.Part{}
			var chapterID string
			if err := rows.Scan(&p.ID, &chapterID, &p.Number, &p.Name); err != nil {
				return err
			}
			if c, ok := chapters[chapterID]; ok {
				c.Parts = append(c.Parts, p)
				parts[p.ID] = p
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = s.scan(ctx, `
		SELECT sp.id, sp.part_id, sp.name FROM subparts sp
		JOIN parts p ON p.id = sp.part_id
		JOIN chapters c ON c.id = p.chapter_id
		WHERE c.title_number = $1 ORDER BY sp.id`, titleNumber,
		func(rows *sql.Rows) error {
			sp := &domain.Subpart{}
			var partID string
			if err := rows.Scan(&sp.ID, &partID, &sp.Name); err != nil {
				return err
			}
			if p, ok := parts[partID]; ok {
				p.Subparts = append(p.Subparts, sp)
				subparts[sp.ID] = sp
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = s.scan(ctx, `
		SELECT s.id, s.subpart_id, s.number, s.name, s.content FROM sections s
		JOIN subparts sp ON sp.id = s.subpart_id
		JOIN parts p ON p.id = sp.part_id
		JOIN chapters c ON c.id = p.chapter_id
		WHERE c.title_number = $1 ORDER BY s.id`, titleNumber,
		func(rows *sql.Rows) error {
			sec := &domain.Section{}
			var subpartID string
			if err := rows.Scan(&sec.ID, &subpartID, &sec.Number, &sec.Name, &sec.Content); err != nil {
				return err
			}
			if sp, ok := subparts[subpartID]; ok {
				sp.Sections = append(sp.Sections, sec)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return structure, nil
}

// CountSections returns the number of stored sections
func (s *HierarchyStore) CountSections(ctx context.Context) (int, error) {
	return count(ctx, s.db, "sections")
}

func (s *HierarchyStore) scan(ctx context.Context, query string, titleNumber int, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, titleNumber)
	if err != nil {
		return fmt.Errorf("load hierarchy of title %d: %w", titleNumber, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
