package state

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

var _ ProximityStore = (*RedisStore)(nil)

const keyPrefix = "geofence:inside:"

// RedisStore keeps one set per device holding the ids of the zones the device
// is inside, so proximity survives a restart of the service.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func deviceKey(deviceID string) string {
	return keyPrefix + deviceID
}

func (r *RedisStore) InsideZones(ctx context.Context, deviceID string) ([]string, error) {
	zones, err := r.client.SMembers(ctx, deviceKey(deviceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(zones)
	return zones, nil
}

func (r *RedisStore) SetInside(ctx context.Context, deviceID, zoneID string, inside bool) error {
	var err error
	if inside {
		err = r.client.SAdd(ctx, deviceKey(deviceID), zoneID).Err()
	} else {
		err = r.client.SRem(ctx, deviceKey(deviceID), zoneID).Err()
	}
	if err != nil {
		return fmt.Errorf("redis set proximity: %w", err)
	}
	return nil
}
