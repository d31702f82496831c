package state

import "context"

// ProximityStore keeps the inside-zone flag for every (device, zone) pair.
// A pair that was never set is outside.
type ProximityStore interface {
	InsideZones(ctx context.Context, deviceID string) ([]string, error)
	SetInside(ctx context.Context, deviceID, zoneID string, inside bool) error
}
