package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"facility-booking-backend/internal/model"
)

const facilityListKey = "facilities:all"

// FacilityDirectory is the read/edit surface for facilities.
type FacilityDirectory interface {
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	GetFacility(ctx context.Context, id string) (*model.Facility, error)
	UpdateFacility(ctx context.Context, id string, patch FacilityPatch) (*model.Facility, error)
}

// CachedDirectory serves facility reads from redis and falls back to next on a miss.
// Edits go to next and invalidate the affected keys.
type CachedDirectory struct {
	next  FacilityDirectory
	redis *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedDirectory wraps next with a redis read-through cache.
func NewCachedDirectory(next FacilityDirectory, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{next: next, redis: client, ttl: ttl, log: log}
}

func facilityKey(id string) string {
	return "facility:" + id
}

// ListFacilities returns every facility.
func (c *CachedDirectory) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	if c.readCache(ctx, facilityListKey, &facilities) {
		return facilities, nil
	}
	facilities, err := c.next.ListFacilities(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, facilityListKey, facilities)
	return facilities, nil
}

// GetFacility returns one facility. Misses are not cached.
func (c *CachedDirectory) GetFacility(ctx context.Context, id string) (*model.Facility, error) {
	var f model.Facility
	if c.readCache(ctx, facilityKey(id), &f) {
		return &f, nil
	}
	got, err := c.next.GetFacility(ctx, id)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, facilityKey(id), got)
	return got, nil
}

// UpdateFacility applies the edit and drops the cached copies.
func (c *CachedDirectory) UpdateFacility(ctx context.Context, id string, patch FacilityPatch) (*model.Facility, error) {
	f, err := c.next.UpdateFacility(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if c.redis != nil {
		if err := c.redis.Del(ctx, facilityKey(id), facilityListKey).Err(); err != nil {
			c.log.Warn().Err(err).Str("facility_id", id).Msg("failed to invalidate facility cache")
		}
	}
	return f, nil
}

func (c *CachedDirectory) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug().Err(err).Str("key", key).Msg("facility cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *CachedDirectory) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("facility cache write failed")
	}
}
