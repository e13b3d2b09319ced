package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry maps to the kv_entries table.
type Entry struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

func (Entry) TableName() string { return "kv_entries" }

// SQLite keeps values in a single-table SQLite database through gorm.
type SQLite struct {
	db *gorm.DB
	// SQLite allows one writer at a time; serialize in-process writers
	// instead of surfacing SQLITE_BUSY.
	mu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the table.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewSQLite(db)
}

// NewSQLite wraps an already opened database.
func NewSQLite(db *gorm.DB) (*SQLite, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Read(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return read(s.db.WithContext(ctx), key)
}

func (s *SQLite) Write(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsert(s.db.WithContext(ctx), key, value)
}

func (s *SQLite) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := read(tx, key)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		return upsert(tx, key, next)
	})
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func read(db *gorm.DB, key string) ([]byte, error) {
	var e Entry
	// Find instead of First: a missing key is not worth a "record not found".
	result := db.Where("key = ?", key).Limit(1).Find(&e)
	if result.Error != nil {
		return nil, fmt.Errorf("read key %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 || len(e.Value) == 0 {
		return nil, nil
	}
	return e.Value, nil
}

func upsert(db *gorm.DB, key string, value []byte) error {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Entry{Key: key, Value: value})
	if result.Error != nil {
		return fmt.Errorf("write key %s: %w", key, result.Error)
	}
	return nil
}
