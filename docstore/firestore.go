package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore delegates to Google Cloud Firestore collections.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// OpenFirestore creates a client for projectID. Credentials come from the
// environment (application default credentials or FIRESTORE_EMULATOR_HOST).
func OpenFirestore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id not set")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	slog.Info("store_connected", "driver", "firestore", "project", projectID)
	return NewFirestoreStore(client), nil
}

func (s *FirestoreStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	if doc == nil {
		doc = Document{}
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, map[string]any(doc))
	if err != nil {
		return "", classifyFirestore(err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, classifyFirestore(err)
	}
	return Document(snap.Data()), nil
}

func (s *FirestoreStore) GetAll(ctx context.Context, collection string) ([]Snapshot, error) {
	docs, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, classifyFirestore(err)
	}
	snaps := make([]Snapshot, 0, len(docs))
	for _, d := range docs {
		snaps = append(snaps, Snapshot{ID: d.Ref.ID, Data: Document(d.Data())})
	}
	return snaps, nil
}

// Merge sets only the top-level fields present in doc. An empty doc still
// creates the document when it is absent.
func (s *FirestoreStore) Merge(ctx context.Context, collection, id string, doc Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	ref := s.client.Collection(collection).Doc(id)

	if len(doc) == 0 {
		err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			_, err := tx.Get(ref)
			if status.Code(err) == codes.NotFound {
				return tx.Set(ref, map[string]any{})
			}
			return err
		})
		return classifyFirestore(err)
	}

	paths := make([]firestore.FieldPath, 0, len(doc))
	for k := range doc {
		paths = append(paths, firestore.FieldPath{k})
	}
	_, err := ref.Set(ctx, map[string]any(doc), firestore.Merge(paths...))
	return classifyFirestore(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return classifyFirestore(err)
}

func (s *FirestoreStore) Close() error {
	slog.Info("store_closed", "driver", "firestore")
	return s.client.Close()
}

// classifyFirestore maps gRPC status codes onto the store taxonomy.
func classifyFirestore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return wrap(ErrUnavailable, err)
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Unauthenticated, codes.PermissionDenied:
		return wrap(ErrUnavailable, err)
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return wrap(ErrInvalidDocument, err)
	case codes.Aborted, codes.AlreadyExists:
		return wrap(ErrConflict, err)
	}
	return err
}
