package store

import (
	"context"

	"github.com/amishk599/jobscout/internal/model"
)

// NopStore is used when history is disabled. It records nothing.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) RecordRun(_ context.Context, _ model.Run) error { return nil }
func (s *NopStore) RecentRuns(_ context.Context, _ int) ([]model.Run, error) {
	return nil, nil
}
