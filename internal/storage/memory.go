package storage

import (
	"context"
	"errors"
	"sync"

	"hpfold/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, record model.RunRecord) error {
	if record.RunID == "" {
		return errors.New("run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.runs[record.RunID] = cloneRunRecord(record)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[runID]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return cloneRunRecord(record), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	records := make([]model.RunRecord, 0, len(s.runs))
	for _, record := range s.runs {
		records = append(records, cloneRunRecord(record))
	}
	s.mu.RUnlock()

	sortNewestFirst(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, runID)
	return nil
}
