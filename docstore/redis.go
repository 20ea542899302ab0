package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisStore keeps each document as a JSON string and tracks the ids of a
// collection in a set so GetAll needs no key scan.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("store_connected", "driver", "redis", "addr", addr)
	return NewRedisStore(client), nil
}

func docKey(collection, id string) string {
	return fmt.Sprintf("docs:%s:%s", collection, id)
}

func idsKey(collection string) string {
	return "ids:" + collection
}

func (s *RedisStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	data, err := encodeDocument(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, docKey(collection, id), data, 0)
		pipe.SAdd(ctx, idsKey(collection), id)
		return nil
	})
	if err != nil {
		return "", classifyRedis(err)
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	b, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if err != nil {
		return nil, classifyRedis(err)
	}
	return decodeDocument(b)
}

// GetAll reads the id set and fetches the documents with one MGET. Ids whose
// document key is gone are skipped.
func (s *RedisStore) GetAll(ctx context.Context, collection string) ([]Snapshot, error) {
	ids, err := s.client.SMembers(ctx, idsKey(collection)).Result()
	if err != nil {
		return nil, classifyRedis(err)
	}
	if len(ids) == 0 {
		return []Snapshot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classifyRedis(err)
	}

	snaps := make([]Snapshot, 0, len(results))
	for i, res := range results {
		raw, ok := res.(string)
		if !ok {
			continue
		}
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, Snapshot{ID: ids[i], Data: doc})
	}
	return snaps, nil
}

// Merge reads, merges and writes under WATCH. A concurrent write to the same
// key aborts the transaction with ErrConflict.
func (s *RedisStore) Merge(ctx context.Context, collection, id string, doc Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	key := docKey(collection, id)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		var current Document
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if current, err = decodeDocument(b); err != nil {
				return err
			}
		}

		data, err := encodeDocument(mergeInto(current, doc))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, idsKey(collection), id)
			return nil
		})
		return err
	}, key)
	return classifyRedis(err)
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, docKey(collection, id))
		pipe.SRem(ctx, idsKey(collection), id)
		return nil
	})
	return classifyRedis(err)
}

func (s *RedisStore) Close() error {
	slog.Info("store_closed", "driver", "redis")
	return s.client.Close()
}

// classifyRedis maps go-redis failures onto the store taxonomy. Errors that
// already carry a store kind pass through.
func classifyRedis(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, redis.Nil):
		return ErrNotFound
	case errors.Is(err, redis.TxFailedErr):
		return wrap(ErrConflict, err)
	case errors.Is(err, ErrInvalidDocument), errors.Is(err, ErrInvalidID):
		return err
	case errors.Is(err, redis.ErrClosed), errors.Is(err, io.EOF), errors.Is(err, context.DeadlineExceeded):
		return wrap(ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(ErrUnavailable, err)
	}
	return err
}
