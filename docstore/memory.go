package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore provides in-memory storage for documents.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
	}
}

// Add stores a copy of doc under a freshly generated id.
func (s *MemoryStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection(collection)[id] = cloneDocument(doc)
	return id, nil
}

// Get retrieves a document by its id.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// GetAll returns every document of the collection in map iteration order.
func (s *MemoryStore) GetAll(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	snaps := make([]Snapshot, 0, len(docs))
	for id, doc := range docs {
		snaps = append(snaps, Snapshot{ID: id, Data: cloneDocument(doc)})
	}
	return snaps, nil
}

// Merge overwrites the given top-level fields, creating the document if needed.
func (s *MemoryStore) Merge(ctx context.Context, collection, id string, doc Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	c[id] = mergeInto(c[id], doc)
	return nil
}

// Delete removes a document. Absent ids are not an error.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// collection must be called with mu held for writing.
func (s *MemoryStore) collection(name string) map[string]Document {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]Document)
		s.collections[name] = c
	}
	return c
}
