package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Checkpointer loads, merges and persists the ingestion checkpoint.
type Checkpointer struct {
	store    driven.CheckpointStore
	agencies driven.AgencyStore
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	current *domain.Checkpoint
}

// CheckpointerConfig holds dependencies for Checkpointer.
type CheckpointerConfig struct {
	Store    driven.CheckpointStore
	Agencies driven.AgencyStore
	Logger   *slog.Logger
}

// NewCheckpointer creates a new Checkpointer.
func NewCheckpointer(cfg CheckpointerConfig) *Checkpointer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkpointer{
		store:    cfg.Store,
		agencies: cfg.Agencies,
		logger:   logger,
		now:      time.Now,
	}
}

// Load reads the stored checkpoint and remembers it as the merge base.
// Returns nil without error when no checkpoint exists.
func (c *Checkpointer) Load(ctx context.Context) (*domain.Checkpoint, error) {
	cp, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	c.mu.Lock()
	c.current = cp.Clone()
	c.mu.Unlock()

	return cp, nil
}

// Update applies mutate to the last loaded or saved checkpoint (or a zero
// checkpoint), stamps it and overwrites the stored record.
func (c *Checkpointer) Update(ctx context.Context, mutate func(cp *domain.Checkpoint)) (*domain.Checkpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current.Clone()
	if next == nil {
		next = &domain.Checkpoint{}
	}
	mutate(next)
	next.Timestamp = c.now().UTC()

	if err := c.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	c.current = next.Clone()
	return next, nil
}

// Clear deletes the stored checkpoint and forgets the merge base.
func (c *Checkpointer) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	c.current = nil
	return nil
}

// ShouldSkipTitle reports whether a title was already completed for the
// checkpointed agency.
func ShouldSkipTitle(titleNumber int, cp *domain.Checkpoint) bool {
	return cp != nil && cp.LastTitleNumber != nil && titleNumber <= *cp.LastTitleNumber
}

// ShouldSkipAgency reports whether a checkpoint may skip anything at all:
// false on a fresh store, and false when the checkpointed agency is no
// longer stored (stale checkpoint).
func (c *Checkpointer) ShouldSkipAgency(ctx context.Context, cp *domain.Checkpoint) (bool, error) {
	if cp == nil || cp.LastAgencyID == nil {
		return false, nil
	}

	count, err := c.agencies.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count agencies: %w", err)
	}
	if count == 0 {
		return false, nil
	}

	exists, err := c.agencies.Exists(ctx, *cp.LastAgencyID)
	if err != nil {
		return false, fmt.Errorf("check agency %s: %w", *cp.LastAgencyID, err)
	}
	if !exists {
		c.logger.Warn("checkpoint references unknown agency, ignoring", "agency_id", *cp.LastAgencyID)
		return false, nil
	}
	return true, nil
}

// Plan builds the resume point for agencies iterated in order.
func (c *Checkpointer) Plan(ctx context.Context, cp *domain.Checkpoint, order []string) (*ResumePoint, error) {
	active, err := c.ShouldSkipAgency(ctx, cp)
	if err != nil {
		return nil, err
	}

	if active {
		found := false
		for _, slug := range order {
			if slug == *cp.LastAgencyID {
				found = true
				break
			}
		}
		if !found {
			c.logger.Warn("checkpoint agency not in remote index, ignoring", "agency_id", *cp.LastAgencyID)
			active = false
		}
	}

	rp := &ResumePoint{active: active}
	if active {
		rp.checkpoint = cp.Clone()
	}
	return rp, nil
}

// ResumePoint decides which units a previous run already completed.
// Agencies before the checkpointed agency are done. The checkpointed agency
// itself is done when no title is recorded, otherwise only its titles up to
// the recorded number are.
type ResumePoint struct {
	active     bool
	reached    bool
	checkpoint *domain.Checkpoint
}

// Active reports whether anything will be skipped.
func (r *ResumePoint) Active() bool {
	return r != nil && r.active
}

// Pending reports whether iteration is still before the checkpointed agency.
func (r *ResumePoint) Pending() bool {
	return r.Active() && !r.reached
}

// SkipAgency must be called once per agency in iteration order.
func (r *ResumePoint) SkipAgency(slug string) bool {
	if !r.Active() || r.reached {
		return false
	}
	if slug == r.checkpoint.AgencyID() {
		r.reached = true
		return r.checkpoint.LastTitleNumber == nil
	}
	return true
}

// SkipTitle reports whether a title of agency slug was completed.
func (r *ResumePoint) SkipTitle(slug string, titleNumber int) bool {
	if !r.Active() || slug != r.checkpoint.AgencyID() {
		return false
	}
	return ShouldSkipTitle(titleNumber, r.checkpoint)
}
