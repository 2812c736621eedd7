package sessionstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/clipnest/clipnest/internal/models"
)

// SQLiteBackend persists the session in a small sqlite file
type SQLiteBackend struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the sqlite database at path and migrates it
func OpenSQLite(path string) (*SQLiteBackend, error) {
	const busyTimeout = 5000 // 5 seconds

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// The CLI and the server may hold the file at the same time
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return NewSQLiteBackend(db)
}

// NewSQLiteBackend wraps an existing gorm connection
func NewSQLiteBackend(db *gorm.DB) (*SQLiteBackend, error) {
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Get(key string) (string, error) {
	var entry models.SessionEntry
	if err := s.db.Where("name = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *SQLiteBackend) Set(key, value string) error {
	entry := models.SessionEntry{Name: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteBackend) Delete(key string) error {
	if err := s.db.Where("name = ?", key).Delete(&models.SessionEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLiteBackend) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
