package app

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DocumentFactory builds a Document for a spreadsheet id.
type DocumentFactory func(id string) *Document

// DocumentStore keeps the most recently used Documents so that repeated
// lookups of one spreadsheet share its cached worksheet list.
// Evicted documents are dropped with their cache.
type DocumentStore struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *Document]
	factory DocumentFactory
}

// NewDocumentStore creates a store holding at most size documents.
func NewDocumentStore(size int, factory DocumentFactory) (*DocumentStore, error) {
	if factory == nil {
		return nil, fmt.Errorf("document store: nil factory")
	}
	cache, err := lru.New[string, *Document](size)
	if err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}
	return &DocumentStore{cache: cache, factory: factory}, nil
}

// Get returns the Document for id, creating it on first use.
func (s *DocumentStore) Get(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.cache.Get(id); ok {
		return d
	}
	d := s.factory(id)
	s.cache.Add(id, d)
	return d
}

// Len returns the number of documents held.
func (s *DocumentStore) Len() int {
	return s.cache.Len()
}
