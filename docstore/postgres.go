package docstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// documentRecord is one document row; collection and id form the primary key.
type documentRecord struct {
	Collection string    `gorm:"primaryKey;size:255"`
	ID         string    `gorm:"primaryKey;size:255"`
	Data       string    `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (r *documentRecord) TableName() string {
	return "documents"
}

const mergeSQL = `
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES (?, ?, ?::jsonb, NOW(), NOW())
ON CONFLICT (collection, id) DO UPDATE SET
	data = documents.data || EXCLUDED.data,
	updated_at = NOW()`

// PostgresStore keeps documents as jsonb rows in a single table.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wraps an already opened gorm handle.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects through lib/pq, applies pool settings, pings and
// migrates the documents table.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dsn,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&documentRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}

	slog.Info("store_connected", "driver", "postgres")
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	data, err := encodeDocument(doc)
	if err != nil {
		return "", err
	}
	rec := documentRecord{
		Collection: collection,
		ID:         uuid.NewString(),
		Data:       data,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", classifyPostgres(err)
	}
	return rec.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var rec documentRecord
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&rec).Error; err != nil {
		return nil, classifyPostgres(err)
	}
	return decodeDocument([]byte(rec.Data))
}

func (s *PostgresStore) GetAll(ctx context.Context, collection string) ([]Snapshot, error) {
	var recs []documentRecord
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Find(&recs).Error; err != nil {
		return nil, classifyPostgres(err)
	}

	snaps := make([]Snapshot, 0, len(recs))
	for _, rec := range recs {
		doc, err := decodeDocument([]byte(rec.Data))
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, Snapshot{ID: rec.ID, Data: doc})
	}
	return snaps, nil
}

// Merge upserts the row, concatenating jsonb so top-level keys of doc win.
func (s *PostgresStore) Merge(ctx context.Context, collection, id string, doc Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Exec(mergeSQL, collection, id, data).Error; err != nil {
		return classifyPostgres(err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRecord{}).Error; err != nil {
		return classifyPostgres(err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	slog.Info("store_closed", "driver", "postgres")
	return sqlDB.Close()
}

// classifyPostgres maps gorm and lib/pq failures onto the store taxonomy.
func classifyPostgres(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return wrap(ErrUnavailable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			// connection exception, insufficient resources, operator intervention
			return wrap(ErrUnavailable, err)
		case "22", "23":
			// data exception, integrity constraint violation
			return wrap(ErrInvalidDocument, err)
		case "40":
			return wrap(ErrConflict, err)
		}
		return err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return wrap(ErrUnavailable, err)
	}
	return err
}
