package quote

import (
	"fmt"
	"sync"

	contractx "github.com/railtoner/tonerbot/bot/contract"
)

// MemoryArtifactStore keeps issued quotes and their rendered documents
// in process memory, keyed by quote number.
type MemoryArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[string]contractx.QuoteArtifact
	documents map[string][]byte
}

func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{
		artifacts: make(map[string]contractx.QuoteArtifact),
		documents: make(map[string][]byte),
	}
}

func (s *MemoryArtifactStore) Put(artifact contractx.QuoteArtifact, document []byte) error {
	if artifact.Number == "" {
		return fmt.Errorf("artifact number is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[artifact.Number] = artifact
	s.documents[artifact.Number] = document
	return nil
}

func (s *MemoryArtifactStore) Get(quoteNumber string) (contractx.QuoteArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	artifact, ok := s.artifacts[quoteNumber]
	if !ok {
		return contractx.QuoteArtifact{}, contractx.ErrArtifactNotFound
	}
	return artifact, nil
}

func (s *MemoryArtifactStore) GetBytes(quoteNumber string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	document, ok := s.documents[quoteNumber]
	if !ok {
		return nil, contractx.ErrArtifactNotFound
	}
	return document, nil
}
