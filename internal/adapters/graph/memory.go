package graph

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// MemoryStore is an in-memory communication graph for development and
// tests. History does not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	edges  map[pairKey]map[string]core.CommunicationRecord
	logger *zap.Logger
}

type pairKey struct {
	sender    string
	recipient string
}

// NewMemoryStore creates a new in-memory graph store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		edges:  make(map[pairKey]map[string]core.CommunicationRecord),
		logger: logger,
	}
}

// ResolveContext counts recorded sender→recipient edges
func (s *MemoryStore) ResolveContext(ctx context.Context, sender, recipient string) (core.CommunicationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMessage := s.edges[pairKey{sender: sender, recipient: recipient}]
	return core.CommunicationContext{
		HistoryExists: len(byMessage) > 0,
		PriorCount:    len(byMessage),
	}, nil
}

// RecordCommunication stores one edge, deduplicated on message ID
func (s *MemoryStore) RecordCommunication(ctx context.Context, rec core.CommunicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{sender: rec.Sender, recipient: rec.Recipient}
	byMessage := s.edges[key]
	if byMessage == nil {
		byMessage = make(map[string]core.CommunicationRecord)
		s.edges[key] = byMessage
	}
	if _, exists := byMessage[rec.MessageID]; !exists {
		byMessage[rec.MessageID] = rec
	}
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
