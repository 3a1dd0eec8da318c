package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvRecord is the row layout of the sqlite store
type kvRecord struct {
	Key       string `gorm:"column:store_key;primaryKey;size:255"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (kvRecord) TableName() string {
	return "quotedesk_kv"
}

// GormStore is a Store backed by a SQLite file through GORM
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database at dsn, e.g. a file path
// or "file::memory:?cache=shared"
func OpenSQLite(dsn string, zl *zap.Logger, logLevel string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(zl, logger.MapGormLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("migrating sqlite store: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Get implements Store
func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec kvRecord
	err := s.db.WithContext(ctx).Where("store_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return rec.Value, nil
}

// Put implements Store
func (s *GormStore) Put(ctx context.Context, key string, value []byte) error {
	rec := kvRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Delete implements Store
func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("store_key = ?", key).Delete(&kvRecord{}).Error; err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// List implements Store
func (s *GormStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	var recs []kvRecord
	err := s.db.WithContext(ctx).
		Where(`store_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("store_key").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}

	entries := make([]Entry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, Entry{Key: r.Key, Value: r.Value})
	}
	return entries, nil
}

// Close implements Store
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
