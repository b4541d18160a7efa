package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Entry is a persisted cache row.
type Entry struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"column:cache_key;size:64;uniqueIndex;not null"`
	Value     []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the cache rows apart from host tables.
func (Entry) TableName() string {
	return "tmdb_cache"
}

// IsExpired reports whether the entry is past its expiry at the given time.
func (e *Entry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// GormStore persists cache entries in a SQL database.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*GormStore)(nil)

// NewGormStore wraps db. The tmdb_cache table must already be migrated.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to query cache: %w", err)
	}
	if entry.IsExpired(s.now()) {
		if err := s.db.WithContext(ctx).Delete(&Entry{}, entry.ID).Error; err != nil {
			return nil, false, fmt.Errorf("failed to drop expired cache entry: %w", err)
		}
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: s.now().Add(ttl),
	}
	err := s.db.WithContext(ctx).
		Where("cache_key = ?", key).
		Assign(Entry{Value: value, ExpiresAt: entry.ExpiresAt}).
		FirstOrCreate(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *GormStore) Purge(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&Entry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired cache entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Clear drops every entry regardless of expiry.
func (s *GormStore) Clear(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&Entry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SetClock replaces the time source. Used by tests.
func (s *GormStore) SetClock(now func() time.Time) {
	s.now = now
}
