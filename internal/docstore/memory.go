package docstore

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process memory. It backs local development
// and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: clone(data)}, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, Document{ID: id, Data: clone(data)})
	}
	sortByID(docs)
	return docs, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, value any) error {
	return s.write(collection, id, value, func(exists bool) error {
		if exists {
			return ErrAlreadyExists
		}
		return nil
	})
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, value any) error {
	return s.write(collection, id, value, func(bool) error { return nil })
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, value any) error {
	return s.write(collection, id, value, func(exists bool) error {
		if !exists {
			return ErrNotFound
		}
		return nil
	})
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) write(collection, id string, value any, check func(exists bool) error) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}
	_, exists := docs[id]
	if err := check(exists); err != nil {
		return err
	}
	docs[id] = clone(data)
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
