package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"equity-backtest/internal/backtest"
	"equity-backtest/internal/metrics"
)

// storedRun keeps a finished backtest for the follow-up equity/trades
// endpoints.
type storedRun struct {
	Result    *backtest.Result
	Summary   metrics.Summary
	CreatedAt time.Time
}

// runStore is an in-memory, bounded store of finished runs keyed by uuid.
// When full, the oldest run is evicted.
type runStore struct {
	mu    sync.RWMutex
	runs  map[string]*storedRun
	order []string
	max   int
}

func newRunStore(max int) *runStore {
	if max <= 0 {
		max = 100
	}
	return &runStore{
		runs: make(map[string]*storedRun),
		max:  max,
	}
}

func (s *runStore) Put(result *backtest.Result, summary metrics.Summary) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.order) >= s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
	s.runs[id] = &storedRun{
		Result:    result,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
	s.order = append(s.order, id)
	return id
}

func (s *runStore) Get(id string) (*storedRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}
