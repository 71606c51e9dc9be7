package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	VehicleCacheTTL = 10 * time.Second // vehicle status changes with every transition
	UserCacheTTL    = 60 * time.Second // users change rarely
)

// Key prefixes
const (
	vehicleCachePrefix = "cache:vehicle:"
	userCachePrefix    = "cache:user:"
)

// CachedVehicle represents a cached vehicle entity.
type CachedVehicle struct {
	ID             string `json:"id"`
	PlateNumber    string `json:"plate_number"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	Status         string `json:"status"`
	CurrentMileage int64  `json:"current_mileage"`
}

// CachedUser represents a cached user entity.
type CachedUser struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	ChannelAddress string `json:"channel_address"`
}

// GetVehicle retrieves a vehicle from cache.
func (s *CacheStore) GetVehicle(ctx context.Context, vehicleID string) (*CachedVehicle, error) {
	key := vehicleCachePrefix + vehicleID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var vehicle CachedVehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// SetVehicle stores a vehicle in cache.
func (s *CacheStore) SetVehicle(ctx context.Context, vehicle *CachedVehicle) error {
	key := vehicleCachePrefix + vehicle.ID
	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, VehicleCacheTTL).Err()
}

// InvalidateVehicle removes a vehicle from cache. Lifecycle services call
// this after every committed transition so reads never serve a stale status
// for longer than one in-flight request.
func (s *CacheStore) InvalidateVehicle(ctx context.Context, vehicleID string) error {
	key := vehicleCachePrefix + vehicleID
	return s.client.Del(ctx, key).Err()
}

// GetUser retrieves a user from cache.
func (s *CacheStore) GetUser(ctx context.Context, userID string) (*CachedUser, error) {
	key := userCachePrefix + userID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var user CachedUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUser stores a user in cache.
func (s *CacheStore) SetUser(ctx context.Context, user *CachedUser) error {
	key := userCachePrefix + user.ID
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, UserCacheTTL).Err()
}
