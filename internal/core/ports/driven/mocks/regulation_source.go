package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// MockRegulationSource serves canned agencies, titles and content.
type MockRegulationSource struct {
	mu       sync.Mutex
	Agencies []*driven.RemoteAgency
	Titles   []*domain.Title
	Content  map[int]*domain.TitleContent

	// ContentCalls counts TitleContent calls per title
	ContentCalls map[int]int

	ListAgenciesFn func() ([]*driven.RemoteAgency, error)
	ListTitlesFn   func() ([]*domain.Title, error)
	TitleContentFn func(title *domain.Title) (*domain.TitleContent, error)
}

// NewMockRegulationSource creates an empty MockRegulationSource
func NewMockRegulationSource() *MockRegulationSource {
	return &MockRegulationSource{
		Content:      make(map[int]*domain.TitleContent),
		ContentCalls: make(map[int]int),
	}
}

func (m *MockRegulationSource) ListAgencies(ctx context.Context) ([]*driven.RemoteAgency, error) {
	if m.ListAgenciesFn != nil {
		return m.ListAgenciesFn()
	}
	return m.Agencies, nil
}

func (m *MockRegulationSource) ListTitles(ctx context.Context) ([]*domain.Title, error) {
	if m.ListTitlesFn != nil {
		return m.ListTitlesFn()
	}
	return m.Titles, nil
}

func (m *MockRegulationSource) TitleVersions(ctx context.Context, titleNumber int) ([]*domain.ContentVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Content[titleNumber]; ok {
		return c.Versions, nil
	}
	return nil, &domain.FetchError{Kind: domain.FetchNotFound, Status: 404}
}

func (m *MockRegulationSource) TitleContent(ctx context.Context, title *domain.Title, date time.Time) (*domain.TitleContent, error) {
	m.mu.Lock()
	m.ContentCalls[title.Number]++
	m.mu.Unlock()

	if m.TitleContentFn != nil {
		return m.TitleContentFn(title)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Content[title.Number]
	if !ok {
		return nil, &domain.FetchError{Kind: domain.FetchNotFound, Status: 404}
	}
	c.Title = title
	return c, nil
}

// Calls returns the number of TitleContent calls for a title
func (m *MockRegulationSource) Calls(titleNumber int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ContentCalls[titleNumber]
}

// MockMaintenance records wipes.
type MockMaintenance struct {
	Wipes  int
	WipeFn func() error
}

func (m *MockMaintenance) Wipe(ctx context.Context) error {
	if m.WipeFn != nil {
		if err := m.WipeFn(); err != nil {
			return err
		}
	}
	m.Wipes++
	return nil
}
