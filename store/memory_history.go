package store

import (
	"context"
	"sync"

	"github.com/BatmanBruc/neural-bot/types"
)

type MemoryHistoryStore struct {
	mu      sync.Mutex
	window  int
	history map[int64][]types.ChatMessage
}

var _ types.HistoryStore = (*MemoryHistoryStore)(nil)

func NewMemoryHistoryStore(window int) *MemoryHistoryStore {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &MemoryHistoryStore{window: window, history: make(map[int64][]types.ChatMessage)}
}

func (s *MemoryHistoryStore) Append(_ context.Context, userID int64, msgs ...types.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.history[userID], msgs...)
	if len(h) > s.window {
		h = h[len(h)-s.window:]
	}
	s.history[userID] = h
	return nil
}

func (s *MemoryHistoryStore) History(_ context.Context, userID int64) ([]types.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.history[userID]))
	copy(out, s.history[userID])
	return out, nil
}

func (s *MemoryHistoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, userID)
	return nil
}
