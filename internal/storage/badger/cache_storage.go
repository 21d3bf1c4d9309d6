package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/equitydb/internal/common"
	"github.com/ternarybob/equitydb/internal/interfaces"
)

// cacheEntry is one cached provider response
type cacheEntry struct {
	Key       string `badgerhold:"key"`
	Payload   []byte
	StoredAt  time.Time
	ExpiresAt time.Time
}

// CacheStorage implements interfaces.CacheStorage on badgerhold
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time
}

// NewCacheStorage opens the cache described by config
func NewCacheStorage(logger arbor.ILogger, config *common.CacheConfig) (*CacheStorage, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}
	return &CacheStorage{db: db, logger: logger, now: time.Now}, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get decodes a live entry into dest. Expired entries are removed and
// reported as interfaces.ErrKeyNotFound.
func (s *CacheStorage) Get(ctx context.Context, key string, dest interface{}) error {
	key = normalizeKey(key)

	var entry cacheEntry
	err := s.db.Store().Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get cache entry: %w", err)
	}

	if !s.now().Before(entry.ExpiresAt) {
		if err := s.db.Store().Delete(key, &cacheEntry{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete expired cache entry")
		}
		return interfaces.ErrKeyNotFound
	}

	if err := json.Unmarshal(entry.Payload, dest); err != nil {
		return fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return nil
}

func (s *CacheStorage) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	now := s.now()
	entry := cacheEntry{
		Key:       normalizeKey(key),
		Payload:   payload,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.db.Store().Upsert(entry.Key, &entry); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (s *CacheStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(normalizeKey(key), &cacheEntry{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Purge deletes every expired entry
func (s *CacheStorage) Purge(ctx context.Context) (int, error) {
	query := badgerhold.Where("ExpiresAt").Le(s.now())

	n, err := s.db.Store().Count(&cacheEntry{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired cache entries: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	if err := s.db.Store().DeleteMatching(&cacheEntry{}, query); err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	s.logger.Debug().Int("entries", int(n)).Msg("Purged expired cache entries")
	return int(n), nil
}

func (s *CacheStorage) Close() error {
	return s.db.Close()
}
