package docstore

import (
	"context"
	"fmt"

	"github.com/Benjuxx2303/products-api/config"
)

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		var pg *PostgresStore
		if pg, err = OpenPostgres(ctx, cfg.DSN()); err == nil {
			s = pg
		}
	case "redis":
		var rs *RedisStore
		if rs, err = OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err == nil {
			s = rs
		}
	case "mongo":
		var ms *MongoStore
		if ms, err = OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase); err == nil {
			s = ms
		}
	case "firestore":
		var fs *FirestoreStore
		if fs, err = OpenFirestore(ctx, cfg.FirestoreProjectID); err == nil {
			s = fs
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
