package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryFollowStore is an in-process FollowStore for single-instance
// deployments without redis.
type MemoryFollowStore struct {
	mu     sync.Mutex
	counts map[uint]int64
	scores map[uint]float64
}

func NewMemoryFollowStore() *MemoryFollowStore {
	return &MemoryFollowStore{
		counts: make(map[uint]int64),
		scores: make(map[uint]float64),
	}
}

func (s *MemoryFollowStore) GetFollowersCount(_ context.Context, userID uint) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, ok := s.counts[userID]
	return count, ok, nil
}

func (s *MemoryFollowStore) SetFollowersCount(_ context.Context, userID uint, count int64) error {
	s.mu.Lock()
	s.counts[userID] = count
	s.mu.Unlock()
	return nil
}

func (s *MemoryFollowStore) CondIncrFollowersCount(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count, ok := s.counts[userID]; ok {
		s.counts[userID] = count + 1
	}
	return nil
}

func (s *MemoryFollowStore) CondDecrFollowersCount(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count, ok := s.counts[userID]; ok && count > 0 {
		s.counts[userID] = count - 1
	}
	return nil
}

func (s *MemoryFollowStore) RecordAccess(_ context.Context, userID uint) error {
	s.mu.Lock()
	s.scores[userID]++
	s.mu.Unlock()
	return nil
}

func (s *MemoryFollowStore) GetTopHotKeys(_ context.Context, n int64) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint, 0, len(s.scores))
	for id := range s.scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.scores[ids[i]] == s.scores[ids[j]] {
			return ids[i] > ids[j]
		}
		return s.scores[ids[i]] > s.scores[ids[j]]
	})
	if n >= 0 && int64(len(ids)) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func (s *MemoryFollowStore) ResetHotKeyScores(context.Context) error {
	s.mu.Lock()
	s.scores = make(map[uint]float64)
	s.mu.Unlock()
	return nil
}

var _ FollowStore = (*MemoryFollowStore)(nil)
