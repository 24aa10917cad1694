package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Maintenance = (*Maintenance)(nil)

// WipeOrder lists every domain table, dependents first.
var WipeOrder = []string{
	"version_references",
	"text_metrics",
	"word_counts",
	"activity_metrics",
	"changes",
	"citations",
	"versions",
	"sections",
	"subparts",
	"parts",
	"chapters",
	"agency_titles",
	"titles",
	"agencies",
}

// Maintenance implements driven.Maintenance using PostgreSQL
type Maintenance struct {
	db *DB
}

// NewMaintenance creates a new Maintenance
func NewMaintenance(db *DB) *Maintenance {
	return &Maintenance{db: db}
}

// Wipe deletes all domain rows in dependency order inside one transaction
func (m *Maintenance) Wipe(ctx context.Context) error {
	return m.db.Transaction(ctx, func(tx *sql.Tx) error {
		return wipe(ctx, tx)
	})
}

func wipe(ctx context.Context, tx execer) error {
	for _, table := range WipeOrder {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}
	return nil
}
