package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven/mocks"
)

// testEnv bundles an Ingestor with its in-memory collaborators.
type testEnv struct {
	ingestor    *Ingestor
	source      *mocks.MockRegulationSource
	agencies    *mocks.MockAgencyStore
	titles      *mocks.MockTitleStore
	hierarchy   *mocks.MockHierarchyStore
	versions    *mocks.MockVersionStore
	metrics     *mocks.MockMetricsStore
	checkpoints *mocks.MockCheckpointStore
	maintenance *mocks.MockMaintenance
	lock        *mocks.MockDistributedLock
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()

	env := &testEnv{
		source:      mocks.NewMockRegulationSource(),
		agencies:    mocks.NewMockAgencyStore(),
		titles:      mocks.NewMockTitleStore(),
		hierarchy:   mocks.NewMockHierarchyStore(),
		versions:    mocks.NewMockVersionStore(),
		metrics:     mocks.NewMockMetricsStore(),
		checkpoints: mocks.NewMockCheckpointStore(),
		maintenance: &mocks.MockMaintenance{},
		lock:        mocks.NewMockDistributedLock(),
	}
	env.ingestor = env.build()
	return env
}

func (e *testEnv) build() *Ingestor {
	return NewIngestor(IngestorConfig{
		Source:          e.source,
		AgencyStore:     e.agencies,
		TitleStore:      e.titles,
		HierarchyStore:  e.hierarchy,
		VersionStore:    e.versions,
		MetricsStore:    e.metrics,
		CheckpointStore: e.checkpoints,
		Maintenance:     e.maintenance,
		Lock:            e.lock,
	})
}

// addTitle registers a title with one chapter/part/subpart/section and a
// body of words words.
func (e *testEnv) addTitle(number, words int) {
	amended := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e.source.Titles = append(e.source.Titles, &domain.Title{
		Number:          number,
		Name:            fmt.Sprintf("Title %d", number),
		LatestAmendedOn: &amended,
	})

	body := ""
	for i := 0; i < words; i++ {
		body += "word "
	}
	body += fmt.Sprintf("See %d CFR 1.1.", number)

	section := &domain.StructureNode{Label: fmt.Sprintf("§ %d.1", number), Type: "section", Content: body}
	e.source.Content[number] = &domain.TitleContent{
		Root: &domain.StructureNode{
			Label: fmt.Sprintf("Title %d", number),
			Children: []*domain.StructureNode{{
				Label: "Chapter I",
				Children: []*domain.StructureNode{{
					Label: fmt.Sprintf("Part %d", number*10),
					Children: []*domain.StructureNode{{
						Label:    "Subpart A",
						Children: []*domain.StructureNode{section},
					}},
				}},
			}},
		},
		Body:   body,
		Source: "[88 FR 1234, Jan. 5, 2023]",
		Versions: []*domain.ContentVersion{
			{Date: amended, Identifier: fmt.Sprintf("%d.1", number), Name: "Scope"},
		},
	}
}

// setBody replaces a title's body text.
func (e *testEnv) setBody(number int, body string) {
	e.source.Content[number].Body = body
}

func (e *testEnv) addAgency(slug string, titles ...int) {
	ra := &driven.RemoteAgency{Agency: &domain.Agency{Slug: slug, Name: slug}}
	for _, n := range titles {
		ra.References = append(ra.References, driven.TitleReference{Title: n})
	}
	e.source.Agencies = append(e.source.Agencies, ra)
}

func (e *testEnv) versionCount(t testing.TB, titleNumber int) int {
	t.Helper()
	vs, err := e.versions.ListByTitle(context.Background(), titleNumber)
	if err != nil {
		t.Fatalf("ListByTitle(%d) error = %v", titleNumber, err)
	}
	return len(vs)
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
