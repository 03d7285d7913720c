package payroll

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	results map[Key]Result
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[Key]Result)}
}

func (s *MemoryStore) Put(_ context.Context, res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[KeyOf(res)] = res
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[key]
	if !ok {
		return Result{}, ErrNotPosted
	}
	return res, nil
}

func (s *MemoryStore) ListByEmployee(_ context.Context, employeeID int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Result
	for key, res := range s.results {
		if key.EmployeeID == employeeID {
			out = append(out, res)
		}
	}
	sortResults(out)
	return out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Result, 0, len(s.results))
	for _, res := range s.results {
		out = append(out, res)
	}
	sortResults(out)
	return out, nil
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		if !a.Period.Start.Equal(b.Period.Start) {
			return a.Period.Start.Before(b.Period.Start)
		}
		return a.Period.End.Before(b.Period.End)
	})
}
