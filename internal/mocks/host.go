package mocks

import (
	"sync"

	"github.com/ZerkerEOD/hostlink/internal/metrics"
)

// MockHostProvider implements a mock host information provider for testing
type MockHostProvider struct {
	mu sync.Mutex

	// Control behavior
	CollectFunc func() (*metrics.HostSnapshot, error)

	// Default data
	Snapshot metrics.HostSnapshot

	// Call tracking
	CollectCalls int
}

// NewMockHostProvider creates a provider returning a fixed Linux snapshot
func NewMockHostProvider() *MockHostProvider {
	return &MockHostProvider{
		Snapshot: metrics.HostSnapshot{
			OSName:      "ubuntu",
			OSVersion:   "22.04",
			TotalMemory: 16 << 30,
			UsedMemory:  4 << 30,
			TotalSwap:   2 << 30,
			UsedSwap:    0,
		},
	}
}

// Collect implements status.Provider
func (m *MockHostProvider) Collect() (*metrics.HostSnapshot, error) {
	m.mu.Lock()
	m.CollectCalls++
	fn := m.CollectFunc
	snapshot := m.Snapshot
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return &snapshot, nil
}
