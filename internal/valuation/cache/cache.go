// Package cache implements the freshness-bounded price-per-m² cache keyed
// by postal code, backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"valora_backend/internal/valuation/domain"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates the postal code has no usable cached price.
// Absent and stale entries are indistinguishable to callers.
var ErrCacheMiss = errors.New("price cache miss")

// DefaultTTLDays is the freshness window applied when none is specified.
const DefaultTTLDays = 90

const keyPrefix = "price_m2:"

// Entry is one cached price-per-m² value for a postal code.
type Entry struct {
	PostalCode string        `json:"postal_code"`
	PriceM2    float64       `json:"price_m2"`
	Source     domain.Source `json:"source"`
	FetchedAt  time.Time     `json:"fetched_at"`
	TTLDays    int           `json:"ttl_days"`
}

// FreshUntil returns the instant the entry stops being usable.
func (e Entry) FreshUntil() time.Time {
	return e.FetchedAt.AddDate(0, 0, e.TTLDays)
}

// Fresh reports whether the entry is still usable at the given instant.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.FreshUntil())
}

// Store handles price cache operations against Redis. Entries are written
// without a Redis TTL: a stale entry stays in place and is simply reported
// as a miss on read.
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

// New creates a cache store on the given Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

// Lookup returns the cached entry for a postal code.
// Returns ErrCacheMiss when the entry is absent, unreadable, or stale.
func (s *Store) Lookup(ctx context.Context, postalCode string) (Entry, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+postalCode).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrCacheMiss
		}
		return Entry{}, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, ErrCacheMiss
	}

	if !entry.Fresh(s.now()) {
		return Entry{}, ErrCacheMiss
	}

	return entry, nil
}

// Put upserts the entry for a postal code, fully replacing any previous
// value. FetchedAt is always the time of the write. A ttlDays of zero or
// less falls back to DefaultTTLDays.
func (s *Store) Put(ctx context.Context, postalCode string, priceM2 float64, source domain.Source, ttlDays int) error {
	if ttlDays <= 0 {
		ttlDays = DefaultTTLDays
	}

	entry := Entry{
		PostalCode: postalCode,
		PriceM2:    priceM2,
		Source:     source,
		FetchedAt:  s.now(),
		TTLDays:    ttlDays,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.rdb.Set(ctx, keyPrefix+postalCode, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}
