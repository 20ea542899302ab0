// Package docstore defines the document-store capability the products API
// delegates all persistence to, together with its backends.
//
// A store groups schemaless documents into named collections addressed by
// collection name and document id:
//
//	Add(ctx, collection, doc)        store assigns the id
//	Get(ctx, collection, id)         ErrNotFound when absent
//	GetAll(ctx, collection)          unspecified order
//	Merge(ctx, collection, id, doc)  top-level field merge, creates when absent
//	Delete(ctx, collection, id)      deleting an absent id succeeds
//
// Implementations:
//   - memory: in-process maps, used for development and tests
//   - postgres: jsonb rows through gorm
//   - redis: JSON values plus an id set per collection
//   - mongo: MongoDB collections with string ObjectID-hex ids
//   - firestore: Google Cloud Firestore
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Document is the field set of a stored document.
type Document map[string]any

// Snapshot is a document together with its id.
type Snapshot struct {
	ID   string
	Data Document
}

// Store is the capability every backend implements.
type Store interface {
	Add(ctx context.Context, collection string, doc Document) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	GetAll(ctx context.Context, collection string) ([]Snapshot, error)
	Merge(ctx context.Context, collection, id string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// Store errors. Backends tag their own failures with them; see wrap.
var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidID       = errors.New("invalid document id")
	ErrInvalidDocument = errors.New("invalid document")
	ErrUnavailable     = errors.New("document store unavailable")
	ErrConflict        = errors.New("concurrent write conflict")
)

// kindError matches both its kind and its cause but reads as the cause alone,
// so callers see the backend's message unchanged.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string   { return e.cause.Error() }
func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }

// wrap tags cause with kind without altering its message.
func wrap(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}

func checkID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidID)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: %q contains '/'", ErrInvalidID, id)
	}
	return nil
}

// cloneDocument deep-copies the JSON-shaped values a document can hold.
func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(cloneDocument(t))
	case Document:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// mergeInto overwrites dst's top-level fields with src's.
func mergeInto(dst, src Document) Document {
	if dst == nil {
		dst = make(Document, len(src))
	}
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func encodeDocument(doc Document) (string, error) {
	if doc == nil {
		doc = Document{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", wrap(ErrInvalidDocument, err)
	}
	return string(b), nil
}

func decodeDocument(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, wrap(ErrInvalidDocument, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
