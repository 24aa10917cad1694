package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// MockHierarchyStore is a mock implementation of HierarchyStore for testing
type MockHierarchyStore struct {
	mu         sync.RWMutex
	structures map[int]*domain.Structure

	// Replaced counts Replace calls per title
	Replaced map[int]int

	ReplaceFn func(titleNumber int, structure *domain.Structure) error
}

// NewMockHierarchyStore creates a new MockHierarchyStore
func NewMockHierarchyStore() *MockHierarchyStore {
	return &MockHierarchyStore{
		structures: make(map[int]*domain.Structure),
		Replaced:   make(map[int]int),
	}
}

func (m *MockHierarchyStore) Replace(ctx context.Context, titleNumber int, structure *domain.Structure) error {
	if m.ReplaceFn != nil {
		if err := m.ReplaceFn(titleNumber, structure); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structures[titleNumber] = structure
	m.Replaced[titleNumber]++
	return nil
}

func (m *MockHierarchyStore) Get(ctx context.Context, titleNumber int) (*domain.Structure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.structures[titleNumber]
	if !ok {
		return &domain.Structure{}, nil
	}
	return s, nil
}

func (m *MockHierarchyStore) CountSections(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, s := range m.structures {
		_, _, _, n := s.Counts()
		total += n
	}
	return total, nil
}

// Reset removes everything
func (m *MockHierarchyStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structures = make(map[int]*domain.Structure)
	m.Replaced = make(map[int]int)
}

// MockVersionStore is a mock implementation of VersionStore for testing
type MockVersionStore struct {
	mu       sync.RWMutex
	versions map[string]*domain.Version
	changes  map[string][]*domain.Change

	CreateFn       func(version *domain.Version) error
	CreateChangeFn func(change *domain.Change) error
	FillContentFn  func(versionID string) error
}

// NewMockVersionStore creates a new MockVersionStore
func NewMockVersionStore() *MockVersionStore {
	return &MockVersionStore{
		versions: make(map[string]*domain.Version),
		changes:  make(map[string][]*domain.Change),
	}
}

func (m *MockVersionStore) Create(ctx context.Context, version *domain.Version) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(version); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *version
	copied.Changes = nil
	m.versions[version.ID] = &copied
	return nil
}

func (m *MockVersionStore) CreateChange(ctx context.Context, change *domain.Change) error {
	if m.CreateChangeFn != nil {
		if err := m.CreateChangeFn(change); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.versions[change.VersionID]; !ok {
		return domain.ErrNotFound
	}
	m.changes[change.VersionID] = append(m.changes[change.VersionID], change)
	return nil
}

func (m *MockVersionStore) FillContent(ctx context.Context, versionID, content string, wordCount int) error {
	if m.FillContentFn != nil {
		if err := m.FillContentFn(versionID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[versionID]
	if !ok {
		return domain.ErrNotFound
	}
	v.Content = content
	v.WordCount = wordCount
	return nil
}

func (m *MockVersionStore) Latest(ctx context.Context, titleNumber int) (*domain.Version, error) {
	versions, _ := m.ListByTitle(ctx, titleNumber)
	if len(versions) == 0 {
		return nil, domain.ErrNotFound
	}
	return versions[0], nil
}

func (m *MockVersionStore) ListByTitle(ctx context.Context, titleNumber int) ([]*domain.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Version
	for _, v := range m.versions {
		if v.TitleNumber == titleNumber {
			copied := *v
			copied.Changes = m.changes[v.ID]
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AmendmentDate != nil && b.AmendmentDate != nil && !a.AmendmentDate.Equal(*b.AmendmentDate) {
			return a.AmendmentDate.After(*b.AmendmentDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

func (m *MockVersionStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.versions), nil
}

// Reset removes everything
func (m *MockVersionStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions = make(map[string]*domain.Version)
	m.changes = make(map[string][]*domain.Change)
}

// MockMetricsStore is a mock implementation of MetricsStore for testing
type MockMetricsStore struct {
	mu         sync.RWMutex
	Metrics    map[string]*domain.TextMetrics
	References []*domain.Reference
	Activity   []*domain.ActivityMetrics
	WordCounts []*domain.WordCount

	SaveTextMetricsFn func(metrics *domain.TextMetrics) error
	SaveReferenceFn   func(ref *domain.Reference) error
}

// NewMockMetricsStore creates a new MockMetricsStore
func NewMockMetricsStore() *MockMetricsStore {
	return &MockMetricsStore{Metrics: make(map[string]*domain.TextMetrics)}
}

func (m *MockMetricsStore) SaveTextMetrics(ctx context.Context, metrics *domain.TextMetrics) error {
	if m.SaveTextMetricsFn != nil {
		if err := m.SaveTextMetricsFn(metrics); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Metrics[metrics.VersionID] = metrics
	return nil
}

func (m *MockMetricsStore) SaveReference(ctx context.Context, ref *domain.Reference) error {
	if m.SaveReferenceFn != nil {
		if err := m.SaveReferenceFn(ref); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.References = append(m.References, ref)
	return nil
}

func (m *MockMetricsStore) SaveActivity(ctx context.Context, activity *domain.ActivityMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Activity = append(m.Activity, activity)
	return nil
}

func (m *MockMetricsStore) SaveWordCount(ctx context.Context, wc *domain.WordCount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WordCounts = append(m.WordCounts, wc)
	return nil
}

// Reset removes everything
func (m *MockMetricsStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Metrics = make(map[string]*domain.TextMetrics)
	m.References = nil
	m.Activity = nil
	m.WordCounts = nil
}
