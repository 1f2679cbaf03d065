package usage

import (
	"context"
	"sync"

	"github.com/themobileprof/medimatch-be/internal/plan"
)

// MemoryStore is an in-process CounterStore. Fine for a single instance and
// for tests; multi-instance deployments use the Postgres-backed store so
// the increment-and-check stays atomic across processes.
type MemoryStore struct {
	mu        sync.Mutex
	chats     map[string]int // userID|day -> chats started
	responses map[string]int // sessionID -> bot responses given
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:     make(map[string]int),
		responses: make(map[string]int),
	}
}

// IncrementChats implements CounterStore.
func (s *MemoryStore) IncrementChats(_ context.Context, userID, day string, limit plan.Limit) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + "|" + day
	used := s.chats[key]
	if limit.Reached(used) {
		return false, used, nil
	}
	s.chats[key] = used + 1
	return true, used + 1, nil
}

// IncrementResponses implements CounterStore.
func (s *MemoryStore) IncrementResponses(_ context.Context, sessionID string, limit plan.Limit) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.responses[sessionID]
	if limit.Reached(used) {
		return false, used, nil
	}
	s.responses[sessionID] = used + 1
	return true, used + 1, nil
}

// ChatsToday implements CounterStore.
func (s *MemoryStore) ChatsToday(_ context.Context, userID, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chats[userID+"|"+day], nil
}
