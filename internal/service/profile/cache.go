package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/buntdb"
)

// DefaultCacheTTL bounds how long a cached profile may be served.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "user_profile:"

// CacheKey returns the cache key for a profile identity.
func CacheKey(id string) string {
	return cacheKeyPrefix + id
}

// Cache is a TTL-bounded profile cache. Each call is atomic on its own.
type Cache interface {
	Get(ctx context.Context, key string) (*Record, bool, error)
	Set(ctx context.Context, key string, rec *Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// cachedRecord is the on-cache shape of a Record. Integer keys keep entries small.
type cachedRecord struct {
	ID        string    `cbor:"1,keyasint"`
	Username  string    `cbor:"2,keyasint"`
	Email     string    `cbor:"3,keyasint"`
	FirstName string    `cbor:"4,keyasint"`
	LastName  string    `cbor:"5,keyasint"`
	AdvisorID *string   `cbor:"6,keyasint"`
	FirmName  string    `cbor:"7,keyasint"`
	Role      string    `cbor:"8,keyasint"`
	Bio       string    `cbor:"9,keyasint"`
	AvatarURL string    `cbor:"10,keyasint"`
	CreatedAt time.Time `cbor:"11,keyasint"`
}

func toCached(r *Record) cachedRecord {
	return cachedRecord{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		AdvisorID: r.AdvisorID,
		FirmName:  r.FirmName,
		Role:      r.Role,
		Bio:       r.Bio,
		AvatarURL: r.AvatarURL,
		CreatedAt: r.CreatedAt,
	}
}

func (c cachedRecord) toRecord() *Record {
	return &Record{
		ID:        c.ID,
		Username:  c.Username,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		AdvisorID: c.AdvisorID,
		FirmName:  c.FirmName,
		Role:      c.Role,
		Bio:       c.Bio,
		AvatarURL: c.AvatarURL,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

// BuntCache keeps profiles in an in-memory buntdb with per-key expiry.
type BuntCache struct {
	db  *buntdb.DB
	enc cbor.EncMode
}

// NewBuntCache opens a process-local cache.
func NewBuntCache() (*BuntCache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open profile cache: %w", err)
	}
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("profile cache encoder: %w", err)
	}
	return &BuntCache{db: db, enc: enc}, nil
}

// Get returns the cached record for key. A missing or expired key is a miss, not an error.
func (c *BuntCache) Get(_ context.Context, key string) (*Record, bool, error) {
	var raw string
	err := c.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}

	var cr cachedRecord
	if err := cbor.Unmarshal([]byte(raw), &cr); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return cr.toRecord(), true, nil
}

// Set stores rec under key. A non-positive ttl stores the entry without expiry.
func (c *BuntCache) Set(_ context.Context, key string, rec *Record, ttl time.Duration) error {
	data, err := c.enc.Marshal(toCached(rec))
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(data), &buntdb.SetOptions{Expires: ttl > 0, TTL: ttl})
		return err
	})
}

// Delete removes key. Deleting an absent key succeeds.
func (c *BuntCache) Delete(_ context.Context, key string) error {
	err := c.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	return err
}

// Close releases the underlying database.
func (c *BuntCache) Close() error {
	return c.db.Close()
}

// NopCache never stores anything; every read is a miss.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*Record, bool, error)        { return nil, false, nil }
func (NopCache) Set(context.Context, string, *Record, time.Duration) error { return nil }
func (NopCache) Delete(context.Context, string) error                      { return nil }

var (
	_ Cache = (*BuntCache)(nil)
	_ Cache = NopCache{}
)
