// Package docstore is a small document database abstraction: named
// collections of JSON documents keyed by string ids. Collections may be
// nested paths such as "chats/sess_abc/messages".
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("docstore: document already exists")
	// ErrInvalidKey is returned for empty collection names or ids.
	ErrInvalidKey = errors.New("docstore: collection and id are required")
)

// Document is a stored record. Data holds the JSON encoding of the value.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.ID, err)
	}
	return nil
}

// Store is implemented by every backend. Writes are last-write-wins.
type Store interface {
	// Get returns ErrNotFound when the document is absent.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns every document of a collection ordered by id ascending.
	List(ctx context.Context, collection string) ([]Document, error)
	// Create writes a new document and fails with ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, collection, id string, value any) error
	// Put creates or fully replaces a document.
	Put(ctx context.Context, collection, id string, value any) error
	// Update fully replaces an existing document and fails with ErrNotFound otherwise.
	Update(ctx context.Context, collection, id string, value any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

func validateKey(collection, id string) error {
	if strings.TrimSpace(collection) == "" || strings.TrimSpace(id) == "" {
		return ErrInvalidKey
	}
	return nil
}

func encode(value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return data, nil
}

func sortByID(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}
