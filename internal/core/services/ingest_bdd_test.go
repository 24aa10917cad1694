package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

type ingestFeature struct {
	t        testing.TB
	env      *testEnv
	failing  map[int]bool
	result   *domain.RunResult
	runErr   error
	titleSet []int
}

func (f *ingestFeature) reset(t testing.TB) {
	f.t = t
	f.env = newTestEnv(t)
	f.failing = make(map[int]bool)
	f.result = nil
	f.runErr = nil
	f.titleSet = nil

	f.env.source.TitleContentFn = func(title *domain.Title) (*domain.TitleContent, error) {
		if f.failing[title.Number] {
			return nil, fmt.Errorf("connection reset fetching title %d", title.Number)
		}
		return f.env.source.Content[title.Number], nil
	}
}

func (f *ingestFeature) titlesArePublished(a, b, c, d int) error {
	for _, n := range []int{a, b, c, d} {
		f.env.addTitle(n, n*5)
		f.titleSet = append(f.titleSet, n)
	}
	return nil
}

func (f *ingestFeature) agencyReferences(slug string, a, b int) error {
	f.env.addAgency(slug, a, b)
	return nil
}

func (f *ingestFeature) aCompletedRun() error {
	if err := f.run(domain.RunOptions{}); err != nil {
		return err
	}
	return f.runErr
}

func (f *ingestFeature) fetchingFails(n int) error {
	f.failing[n] = true
	return nil
}

func (f *ingestFeature) fetchingSucceeds(n int) error {
	delete(f.failing, n)
	return nil
}

func (f *ingestFeature) checkpointAt(slug string, title int) error {
	f.env.checkpoints.Set(&domain.Checkpoint{LastAgencyID: &slug, LastTitleNumber: &title})
	return nil
}

func (f *ingestFeature) agencyIsStored(slug string) error {
	return f.env.agencies.Upsert(context.Background(), &domain.Agency{Slug: slug, Name: slug})
}

func (f *ingestFeature) run(opts domain.RunOptions) error {
	f.result, f.runErr = f.env.ingestor.Run(context.Background(), opts)
	return nil
}

func (f *ingestFeature) iRun() error {
	return f.run(domain.RunOptions{})
}

func (f *ingestFeature) iRunFresh() error {
	return f.run(domain.RunOptions{Fresh: true})
}

func (f *ingestFeature) runSucceeds() error {
	if f.runErr != nil {
		return fmt.Errorf("run failed: %w", f.runErr)
	}
	return nil
}

func (f *ingestFeature) runFails() error {
	if f.runErr == nil {
		return errors.New("expected run to fail")
	}
	return nil
}

func (f *ingestFeature) titlesProcessed(n int) error {
	if f.result == nil {
		return errors.New("no run result")
	}
	if got := f.result.Stats.TitlesProcessed; got != n {
		return fmt.Errorf("titles processed = %d, want %d", got, n)
	}
	return nil
}

func (f *ingestFeature) everyTitleHasVersions(n int) error {
	for _, number := range f.titleSet {
		if got := f.env.versionCount(f.t, number); got != n {
			return fmt.Errorf("title %d has %d versions, want %d", number, got, n)
		}
	}
	return nil
}

func (f *ingestFeature) checkpointNoTitle(slug string) error {
	cp := f.env.checkpoints.Current()
	if cp.AgencyID() != slug || cp.LastTitleNumber != nil {
		return fmt.Errorf("checkpoint = %+v, want %s with no title", cp, slug)
	}
	return nil
}

func (f *ingestFeature) checkpointTitle(slug string, title int) error {
	cp := f.env.checkpoints.Current()
	if cp.AgencyID() != slug || cp.LastTitleNumber == nil || *cp.LastTitleNumber != title {
		return fmt.Errorf("checkpoint = %+v, want %s/%d", cp, slug, title)
	}
	return nil
}

func TestIngestFeatures(t *testing.T) {
	f := &ingestFeature{}

	suite := godog.TestSuite{
		Name: "ingest",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				f.reset(t)
				return ctx, nil
			})

			sc.Step(`^titles (\d+), (\d+), (\d+) and (\d+) are published$`, f.titlesArePublished)
			sc.Step(`^agency "([^"]*)" references titles (\d+) and (\d+)$`, f.agencyReferences)
			sc.Step(`^a completed run$`, f.aCompletedRun)
			sc.Step(`^fetching title (\d+) fails$`, f.fetchingFails)
			sc.Step(`^fetching title (\d+) succeeds$`, f.fetchingSucceeds)
			sc.Step(`^a checkpoint at agency "([^"]*)" and title (\d+)$`, f.checkpointAt)
			sc.Step(`^agency "([^"]*)" is stored$`, f.agencyIsStored)
			sc.Step(`^I run the ingestion$`, f.iRun)
			sc.Step(`^I run the ingestion from scratch$`, f.iRunFresh)
			sc.Step(`^the run succeeds$`, f.runSucceeds)
			sc.Step(`^the run fails$`, f.runFails)
			sc.Step(`^(\d+) titles are processed$`, f.titlesProcessed)
			sc.Step(`^every title has (\d+) versions?$`, f.everyTitleHasVersions)
			sc.Step(`^the checkpoint points at agency "([^"]*)" with no title$`, f.checkpointNoTitle)
			sc.Step(`^the checkpoint points at agency "([^"]*)" and title (\d+)$`, f.checkpointTitle)
		},
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("feature scenarios failed")
	}
}
