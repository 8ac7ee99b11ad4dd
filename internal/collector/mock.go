package collector

import (
	"context"

	"PriceSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Snapshot model.Snapshot
	Err      error
	Calls    int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context) (model.Snapshot, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Snapshot.Clone(), nil
}
