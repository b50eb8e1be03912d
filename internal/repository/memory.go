package repository

import (
	"context"
	"sync"
)

var _ QuoteStore = (*MemoryStore)(nil)

// MemoryStore is the default in-process quote cache. The simulator
// must run with zero external services, so Redis stays opt-in.
type MemoryStore struct {
	mu     sync.RWMutex
	quotes map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[string][]byte)}
}

func (m *MemoryStore) SetQuote(_ context.Context, symbol string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[symbol] = payload
	return nil
}

func (m *MemoryStore) GetQuote(_ context.Context, symbol string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.quotes[symbol]
	return payload, ok, nil
}

func (m *MemoryStore) Close() error { return nil }
