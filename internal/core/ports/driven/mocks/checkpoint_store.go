package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// MockCheckpointStore keeps the checkpoint in memory and records every save.
type MockCheckpointStore struct {
	mu         sync.Mutex
	checkpoint *domain.Checkpoint

	// Saves holds a copy of every saved checkpoint, in order
	Saves []*domain.Checkpoint

	SaveFn func(checkpoint *domain.Checkpoint) error
}

// NewMockCheckpointStore creates a new MockCheckpointStore
func NewMockCheckpointStore() *MockCheckpointStore {
	return &MockCheckpointStore{}
}

func (m *MockCheckpointStore) Load(ctx context.Context) (*domain.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoint.Clone(), nil
}

func (m *MockCheckpointStore) Save(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(checkpoint); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = checkpoint.Clone()
	m.Saves = append(m.Saves, checkpoint.Clone())
	return nil
}

func (m *MockCheckpointStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = nil
	return nil
}

// Set forces the stored checkpoint (for test setup)
func (m *MockCheckpointStore) Set(checkpoint *domain.Checkpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoint = checkpoint.Clone()
}

// Current returns the stored checkpoint
func (m *MockCheckpointStore) Current() *domain.Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoint.Clone()
}
