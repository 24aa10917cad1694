package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/analysis"
	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/cfr-ingest/internal/structure"
)

// Verify interface compliance
var _ driving.IngestService = (*Ingestor)(nil)

// RunLockName is the distributed lock guarding an ingestion run.
const RunLockName = "ingest"

// DefaultLockTTL is how long the run lock lives without being extended.
const DefaultLockTTL = 2 * time.Minute

// Ingestor drives an ingestion run:
//  1. Load the checkpoint
//  2. Fetch the agency and title indexes
//  3. Upsert every title shell
//  4. For each agency in remote order, upsert it and process its titles
//  5. Per title: fetch, parse, analyze, write, save checkpoint
//
// Runs are strictly sequential. Any error on a primary write or a remote
// call other than a missing title aborts the run; the checkpoint keeps the
// last completed unit so the next run resumes after it.
type Ingestor struct {
	source      driven.RegulationSource
	agencies    driven.AgencyStore
	titles      driven.TitleStore
	hierarchy   driven.HierarchyStore
	versions    driven.VersionStore
	maintenance driven.Maintenance
	lock        driven.DistributedLock
	lockTTL     time.Duration
	metrics     driven.IngestMetrics
	progress    driving.ProgressReporter
	logger      *slog.Logger

	checkpoints    *Checkpointer
	hierarchyWrite *HierarchyWriter
	versionWrite   *VersionWriter
	metricsWrite   *MetricsWriter

	mu    sync.RWMutex
	state domain.RunState
}

// IngestorConfig holds dependencies for Ingestor.
type IngestorConfig struct {
	Source          driven.RegulationSource
	AgencyStore     driven.AgencyStore
	TitleStore      driven.TitleStore
	HierarchyStore  driven.HierarchyStore
	VersionStore    driven.VersionStore
	MetricsStore    driven.MetricsStore
	CheckpointStore driven.CheckpointStore
	Maintenance     driven.Maintenance
	Lock            driven.DistributedLock // optional
	LockTTL         time.Duration
	Metrics         driven.IngestMetrics     // optional
	Progress        driving.ProgressReporter // optional
	Logger          *slog.Logger
}

// NewIngestor creates a new Ingestor.
func NewIngestor(cfg IngestorConfig) *Ingestor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}

	return &Ingestor{
		source:      cfg.Source,
		agencies:    cfg.AgencyStore,
		titles:      cfg.TitleStore,
		hierarchy:   cfg.HierarchyStore,
		versions:    cfg.VersionStore,
		maintenance: cfg.Maintenance,
		lock:        cfg.Lock,
		lockTTL:     lockTTL,
		metrics:     metrics,
		progress:    cfg.Progress,
		logger:      logger,
		checkpoints: NewCheckpointer(CheckpointerConfig{
			Store:    cfg.CheckpointStore,
			Agencies: cfg.AgencyStore,
			Logger:   logger,
		}),
		hierarchyWrite: NewHierarchyWriter(cfg.HierarchyStore, logger),
		versionWrite:   NewVersionWriter(cfg.VersionStore, logger),
		metricsWrite:   NewMetricsWriter(cfg.MetricsStore, metrics, logger),
		state:          domain.RunStateInit,
	}
}

// State returns the current run state.
func (i *Ingestor) State() domain.RunState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

func (i *Ingestor) setState(s domain.RunState) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// run carries the mutable state of one Run call.
type run struct {
	opts      domain.RunOptions
	stats     domain.RunStats
	resume    *ResumePoint
	titles    map[int]*domain.Title
	processed map[int]bool
}

// Run executes one ingestion run.
func (i *Ingestor) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	startTime := time.Now()
	i.setState(domain.RunStateInit)

	release, err := i.acquireLock(ctx)
	if err != nil {
		return i.failRun(startTime, domain.RunStats{}, err)
	}
	defer release()

	r := &run{
		opts:      opts,
		processed: make(map[int]bool),
	}

	// Step 1: Checkpoint
	var cp *domain.Checkpoint
	if opts.Fresh {
		if err := i.checkpoints.Clear(ctx); err != nil {
			return i.failRun(startTime, r.stats, err)
		}
	} else {
		cp, err = i.checkpoints.Load(ctx)
		if err != nil {
			return i.failRun(startTime, r.stats, err)
		}
	}

	i.logger.Info("starting ingestion",
		"fresh", opts.Fresh,
		"titles_filter", opts.Titles,
		"checkpoint_agency", cp.AgencyID(),
	)

	// Step 2: Indexes
	i.setState(domain.RunStateLoadingIndex)
	remoteAgencies, err := i.source.ListAgencies(ctx)
	if err != nil {
		return i.failRun(startTime, r.stats, fmt.Errorf("load agency index: %w", err))
	}
	remoteTitles, err := i.source.ListTitles(ctx)
	if err != nil {
		return i.failRun(startTime, r.stats, fmt.Errorf("load title index: %w", err))
	}

	// Step 3: Title shells
	r.titles = make(map[int]*domain.Title, len(remoteTitles))
	for _, t := range remoteTitles {
		if err := i.titles.Upsert(ctx, t); err != nil {
			return i.failRun(startTime, r.stats, fmt.Errorf("upsert title %d: %w", t.Number, err))
		}
		r.titles[t.Number] = t
	}

	order := make([]string, 0, len(remoteAgencies))
	for _, ra := range remoteAgencies {
		order = append(order, ra.Agency.Slug)
	}
	r.resume, err = i.checkpoints.Plan(ctx, cp, order)
	if err != nil {
		return i.failRun(startTime, r.stats, err)
	}
	if r.resume.Active() {
		lastTitle := 0
		if cp.LastTitleNumber != nil {
			lastTitle = *cp.LastTitleNumber
		}
		i.logger.Info("resuming from checkpoint",
			"agency_id", cp.AgencyID(),
			"title_number", lastTitle,
			"agencies_processed", cp.Progress.AgenciesProcessed,
			"titles_processed", cp.Progress.TitlesProcessed,
		)
	}

	// Step 4: Agencies
	i.setState(domain.RunStateIteratingAgencies)
	for idx, ra := range remoteAgencies {
		if err := ctx.Err(); err != nil {
			return i.failRun(startTime, r.stats, err)
		}
		r.stats.AgenciesSeen++

		if err := i.processAgency(ctx, r, ra, idx, len(remoteAgencies)); err != nil {
			return i.failRun(startTime, r.stats, err)
		}
	}

	i.setState(domain.RunStateDone)
	duration := time.Since(startTime).Seconds()

	i.logger.Info("ingestion completed",
		"duration_seconds", duration,
		"agencies_processed", r.stats.AgenciesProcessed,
		"agencies_skipped", r.stats.AgenciesSkipped,
		"titles_processed", r.stats.TitlesProcessed,
		"titles_skipped", r.stats.TitlesSkipped,
		"titles_no_content", r.stats.TitlesNoContent,
		"titles_changed", r.stats.TitlesChanged,
		"references_failed", r.stats.ReferencesFailed,
	)

	return &domain.RunResult{
		State:    domain.RunStateDone,
		Stats:    r.stats,
		Duration: duration,
	}, nil
}

func (i *Ingestor) processAgency(ctx context.Context, r *run, ra *driven.RemoteAgency, idx, total int) error {
	agency := ra.Agency
	if agency == nil || strings.TrimSpace(agency.Slug) == "" {
		i.logger.Debug("skipping agency without slug", "index", idx)
		r.stats.AgenciesSkipped++
		i.metrics.UnitSkipped("agency")
		if r.resume.Pending() {
			return nil
		}
		// Counted as handled; the resume marker stays on the last real agency.
		_, err := i.checkpoints.Update(ctx, func(cp *domain.Checkpoint) {
			cp.Progress.AgenciesProcessed++
		})
		return err
	}
	slug := agency.Slug

	if r.resume.SkipAgency(slug) {
		// Its titles were completed by the run that wrote the checkpoint.
		for _, number := range referencedTitles(ra.References) {
			r.processed[number] = true
		}
		r.stats.AgenciesSkipped++
		i.metrics.UnitSkipped("agency")
		return nil
	}

	if i.progress != nil {
		i.progress.AgencyStarted(slug, idx, total)
	}

	if err := i.agencies.Upsert(ctx, agency); err != nil {
		return fmt.Errorf("upsert agency %s: %w", slug, err)
	}

	for _, number := range referencedTitles(ra.References) {
		if err := ctx.Err(); err != nil {
			return err
		}

		title, ok := r.titles[number]
		if !ok {
			i.logger.Debug("agency references unknown title", "agency_id", slug, "title_number", number)
			continue
		}
		if err := i.agencies.LinkTitle(ctx, slug, number); err != nil {
			return fmt.Errorf("link agency %s to title %d: %w", slug, number, err)
		}

		if r.resume.SkipTitle(slug, number) {
			r.processed[number] = true
		}
		if !r.opts.WantsTitle(number) || r.processed[number] {
			r.stats.TitlesSkipped++
			i.metrics.UnitSkipped("title")
			continue
		}

		i.setState(domain.RunStateProcessingTitle)
		err := i.processTitle(ctx, r, slug, title)
		if i.progress != nil {
			i.progress.TitleDone(slug, number, err)
		}
		if err != nil {
			return fmt.Errorf("agency %s title %d: %w", slug, number, err)
		}
		r.processed[number] = true
		i.setState(domain.RunStateIteratingAgencies)

		n := number
		if _, err := i.checkpoints.Update(ctx, func(cp *domain.Checkpoint) {
			cp.LastAgencyID = &slug
			cp.LastTitleNumber = &n
			cp.Progress.TitlesProcessed++
		}); err != nil {
			return err
		}
	}

	if _, err := i.checkpoints.Update(ctx, func(cp *domain.Checkpoint) {
		cp.LastAgencyID = &slug
		cp.LastTitleNumber = nil
		cp.Progress.AgenciesProcessed++
	}); err != nil {
		return err
	}

	r.stats.AgenciesProcessed++
	i.metrics.AgencyProcessed()
	return nil
}

// referencedTitles returns the distinct title numbers of refs, ascending.
func referencedTitles(refs []driven.TitleReference) []int {
	seen := make(map[int]bool, len(refs))
	var out []int
	for _, ref := range refs {
		if ref.Title <= 0 || seen[ref.Title] {
			continue
		}
		seen[ref.Title] = true
		out = append(out, ref.Title)
	}
	sort.Ints(out)
	return out
}

// processTitle is one unit of work. A title without remote content is
// counted and skipped.
func (i *Ingestor) processTitle(ctx context.Context, r *run, slug string, title *domain.Title) error {
	start := time.Now()
	number := title.Number

	content, err := i.source.TitleContent(ctx, title, time.Time{})
	if errors.Is(err, domain.ErrNotFound) {
		i.logger.Info("title has no content, skipping", "agency_id", slug, "title_number", number)
		r.stats.TitlesNoContent++
		i.metrics.UnitSkipped("title_no_content")
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch content: %w", err)
	}

	parsed := structure.Parse(content.Root)
	if err := i.hierarchyWrite.Replace(ctx, number, parsed); err != nil {
		return err
	}

	body := content.Body
	if strings.TrimSpace(body) == "" {
		body = sectionText(parsed)
	}
	wordCount := analysis.WordCount(body)

	previous, err := i.versions.Latest(ctx, number)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load latest version: %w", err)
	}

	meta := domain.VersionMeta{
		AmendmentDate: title.LatestAmendedOn,
		EffectiveDate: title.UpToDateAsOf,
		PublishedDate: title.LatestIssueDate,
		Authority:     content.Authority,
		Source:        content.Source,
		Citations:     analysis.ExtractCitations(content.Source),
		Changes:       changesFor(content.Versions, title.LatestAmendedOn),
	}
	version, results, err := i.versionWrite.CreateVersion(ctx, number, meta)
	if err != nil {
		return err
	}
	r.stats.VersionsCreated++
	if err := ChangeErrors(results); err != nil {
		for _, res := range results {
			if res.Err != nil {
				r.stats.ChangesFailed++
			}
		}
		return err
	}

	if err := i.versionWrite.FillContent(ctx, version.ID, body, wordCount); err != nil {
		return err
	}

	processed := &domain.ProcessedContent{
		Metrics:    analysis.CalculateTextMetrics(body),
		References: analysis.ExtractReferences(body, version.ID),
	}
	mr, err := i.metricsWrite.ProcessMetrics(ctx, version.ID, processed)
	if err != nil {
		return err
	}
	r.stats.ReferencesWritten += mr.ReferencesWritten
	r.stats.ReferencesFailed += mr.ReferencesFailed

	if err := i.metricsWrite.RecordWordCount(ctx, slug, number, wordCount); err != nil {
		return err
	}
	if previous != nil {
		if _, err := i.metricsWrite.ProcessActivityMetrics(ctx, slug, number, previous.WordCount, wordCount); err != nil {
			return err
		}
		diff := analysis.CompareVersions(previous.Content, body)
		if len(diff.Added)+len(diff.Deleted)+len(diff.Modified) > 0 {
			r.stats.TitlesChanged++
		}
		i.logger.Info("title text compared",
			"agency_id", slug,
			"title_number", number,
			"words_added", len(diff.Added),
			"words_deleted", len(diff.Deleted),
			"words_modified", len(diff.Modified),
		)
	}

	r.stats.TitlesProcessed++
	i.metrics.TitleProcessed(time.Since(start), wordCount)

	i.logger.Info("title processed",
		"agency_id", slug,
		"title_number", number,
		"version_id", version.ID,
		"word_count", wordCount,
		"changes", len(version.Changes),
		"citations", len(version.Citations),
		"references", mr.ReferencesWritten,
		"duration_seconds", time.Since(start).Seconds(),
	)
	return nil
}

func sectionText(s *domain.Structure) string {
	var b strings.Builder
	for _, c := range s.Chapters {
		for _, p := range c.Parts {
			for _, sp := range p.Subparts {
				for _, sec := range sp.Sections {
					if sec.Content == "" {
						continue
					}
					b.WriteString(sec.Content)
					b.WriteByte('\n')
				}
			}
		}
	}
	return b.String()
}

// changesFor turns the version entries dated on the title's latest
// amendment into changes. The first entry ever seen for an identifier is an
// ADD, a removed entry is a REMOVE, anything else a MODIFY.
func changesFor(versions []*domain.ContentVersion, amendedOn *time.Time) []*domain.Change {
	if len(versions) == 0 {
		return nil
	}

	var target time.Time
	if amendedOn != nil {
		target = *amendedOn
	} else {
		for _, v := range versions {
			if v.Date.After(target) {
				target = v.Date
			}
		}
	}

	first := make(map[string]time.Time)
	for _, v := range versions {
		if t, ok := first[v.Identifier]; !ok || v.Date.Before(t) {
			first[v.Identifier] = v.Date
		}
	}

	var changes []*domain.Change
	for _, v := range versions {
		if !sameDay(v.Date, target) {
			continue
		}
		change := &domain.Change{
			Type:        domain.ChangeTypeModify,
			Section:     v.Identifier,
			Description: v.Name,
		}
		switch {
		case v.Removed:
			change.Type = domain.ChangeTypeRemove
		case sameDay(first[v.Identifier], v.Date):
			change.Type = domain.ChangeTypeAdd
		}
		changes = append(changes, change)
	}
	return changes
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (i *Ingestor) acquireLock(ctx context.Context) (func(), error) {
	if i.lock == nil {
		return func() {}, nil
	}

	acquired, err := i.lock.Acquire(ctx, RunLockName, i.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrLockHeld
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(i.lockTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := i.lock.Extend(context.Background(), RunLockName, i.lockTTL); err != nil {
					i.logger.Warn("failed to extend run lock", "error", err)
				}
			}
		}
	}()

	return func() {
		close(stop)
		<-done
		if err := i.lock.Release(context.Background(), RunLockName); err != nil {
			i.logger.Warn("failed to release run lock", "error", err)
		}
	}, nil
}

func (i *Ingestor) failRun(startTime time.Time, stats domain.RunStats, err error) (*domain.RunResult, error) {
	i.setState(domain.RunStateFailed)
	duration := time.Since(startTime).Seconds()

	i.logger.Error("ingestion failed",
		"duration_seconds", duration,
		"titles_processed", stats.TitlesProcessed,
		"error", err,
	)

	return &domain.RunResult{
		State:    domain.RunStateFailed,
		Stats:    stats,
		Duration: duration,
		Error:    err.Error(),
	}, err
}

// Status reports the stored checkpoint and row counts.
func (i *Ingestor) Status(ctx context.Context) (*domain.IngestStatus, error) {
	cp, err := i.checkpoints.Load(ctx)
	if err != nil {
		return nil, err
	}

	status := &domain.IngestStatus{Checkpoint: cp, CheckedAt: time.Now().UTC()}
	if status.Counts.Agencies, err = i.agencies.Count(ctx); err != nil {
		return nil, fmt.Errorf("count agencies: %w", err)
	}
	if status.Counts.Titles, err = i.titles.Count(ctx); err != nil {
		return nil, fmt.Errorf("count titles: %w", err)
	}
	if status.Counts.Versions, err = i.versions.Count(ctx); err != nil {
		return nil, fmt.Errorf("count versions: %w", err)
	}
	if status.Counts.Sections, err = i.hierarchy.CountSections(ctx); err != nil {
		return nil, fmt.Errorf("count sections: %w", err)
	}
	return status, nil
}

// Reset wipes every domain table and deletes the checkpoint.
func (i *Ingestor) Reset(ctx context.Context) error {
	release, err := i.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := i.maintenance.Wipe(ctx); err != nil {
		return fmt.Errorf("wipe store: %w", err)
	}
	if err := i.checkpoints.Clear(ctx); err != nil {
		return err
	}

	i.logger.Info("store wiped and checkpoint cleared")
	i.setState(domain.RunStateInit)
	return nil
}
