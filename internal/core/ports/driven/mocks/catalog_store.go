package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// MockAgencyStore is a mock implementation of AgencyStore for testing
type MockAgencyStore struct {
	mu       sync.RWMutex
	agencies map[string]*domain.Agency
	links    map[string]map[int]bool

	UpsertFn func(agency *domain.Agency) error
}

// NewMockAgencyStore creates a new MockAgencyStore
func NewMockAgencyStore() *MockAgencyStore {
	return &MockAgencyStore{
		agencies: make(map[string]*domain.Agency),
		links:    make(map[string]map[int]bool),
	}
}

func (m *MockAgencyStore) Upsert(ctx context.Context, agency *domain.Agency) error {
	if m.UpsertFn != nil {
		if err := m.UpsertFn(agency); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *agency
	m.agencies[agency.Slug] = &copied
	return nil
}

func (m *MockAgencyStore) Get(ctx context.Context, slug string) (*domain.Agency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agencies[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *a
	for n := range m.links[slug] {
		copied.TitleNumbers = append(copied.TitleNumbers, n)
	}
	sort.Ints(copied.TitleNumbers)
	return &copied, nil
}

func (m *MockAgencyStore) Exists(ctx context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.agencies[slug]
	return ok, nil
}

func (m *MockAgencyStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.agencies), nil
}

func (m *MockAgencyStore) LinkTitle(ctx context.Context, slug string, titleNumber int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agencies[slug]; !ok {
		return domain.ErrNotFound
	}
	if m.links[slug] == nil {
		m.links[slug] = make(map[int]bool)
	}
	m.links[slug][titleNumber] = true
	return nil
}

// Reset removes everything
func (m *MockAgencyStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agencies = make(map[string]*domain.Agency)
	m.links = make(map[string]map[int]bool)
}

// MockTitleStore is a mock implementation of TitleStore for testing
type MockTitleStore struct {
	mu     sync.RWMutex
	titles map[int]*domain.Title

	UpsertFn func(title *domain.Title) error
}

// NewMockTitleStore creates a new MockTitleStore
func NewMockTitleStore() *MockTitleStore {
	return &MockTitleStore{titles: make(map[int]*domain.Title)}
}

func (m *MockTitleStore) Upsert(ctx context.Context, title *domain.Title) error {
	if m.UpsertFn != nil {
		if err := m.UpsertFn(title); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *title
	m.titles[title.Number] = &copied
	return nil
}

func (m *MockTitleStore) Get(ctx context.Context, number int) (*domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.titles[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *MockTitleStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.titles), nil
}

// Reset removes everything
func (m *MockTitleStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = make(map[int]*domain.Title)
}
