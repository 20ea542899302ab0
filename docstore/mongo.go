package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps collections onto MongoDB collections of one database.
// Document ids are ObjectID hex strings stored as string _id values.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore wraps an existing client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

// OpenMongo connects to uri and pings the primary.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("mongo uri and database must be set")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	slog.Info("store_connected", "driver", "mongo", "database", database)
	return NewMongoStore(client, database), nil
}

func (s *MongoStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	record := bson.M{}
	for k, v := range doc {
		record[k] = v
	}
	record["_id"] = id
	if _, err := s.db.Collection(collection).InsertOne(ctx, record); err != nil {
		return "", classifyMongo(err)
	}
	return id, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var raw bson.M
	if err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		return nil, classifyMongo(err)
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) GetAll(ctx context.Context, collection string) ([]Snapshot, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, classifyMongo(err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, classifyMongo(err)
	}

	snaps := make([]Snapshot, 0, len(raws))
	for _, raw := range raws {
		id := fmt.Sprint(raw["_id"])
		if oid, ok := raw["_id"].(primitive.ObjectID); ok {
			id = oid.Hex()
		}
		snaps = append(snaps, Snapshot{ID: id, Data: fromBSON(raw)})
	}
	return snaps, nil
}

// Merge applies $set with upsert. "_id" in doc is ignored.
func (s *MongoStore) Merge(ctx context.Context, collection, id string, doc Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range doc {
		if k != "_id" {
			set[k] = v
		}
	}
	update := bson.M{"$set": set}
	if len(set) == 0 {
		update = bson.M{"$setOnInsert": bson.M{"_id": id}}
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	return classifyMongo(err)
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return classifyMongo(err)
}

func (s *MongoStore) Close() error {
	slog.Info("store_closed", "driver", "mongo")
	return s.client.Disconnect(context.Background())
}

// fromBSON drops _id and converts nested BSON containers into plain maps and slices.
func fromBSON(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = plainValue(v)
	}
	return doc
}

func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

// classifyMongo maps driver failures onto the store taxonomy.
func classifyMongo(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return wrap(ErrConflict, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, mongo.ErrClientDisconnected), errors.Is(err, context.DeadlineExceeded):
		return wrap(ErrUnavailable, err)
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		return wrap(ErrInvalidDocument, err)
	}
	return err
}
