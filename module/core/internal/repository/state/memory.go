package state

import (
	"context"
	"sort"
	"sync"
)

var _ ProximityStore = (*MemoryStore)(nil)

type MemoryStore struct {
	mu     sync.RWMutex
	inside map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{inside: make(map[string]map[string]struct{})}
}

func (m *MemoryStore) InsideZones(_ context.Context, deviceID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zones := make([]string, 0, len(m.inside[deviceID]))
	for id := range m.inside[deviceID] {
		zones = append(zones, id)
	}
	sort.Strings(zones)
	return zones, nil
}

func (m *MemoryStore) SetInside(_ context.Context, deviceID, zoneID string, inside bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	zones := m.inside[deviceID]
	if !inside {
		delete(zones, zoneID)
		if len(zones) == 0 {
			delete(m.inside, deviceID)
		}
		return nil
	}
	if zones == nil {
		zones = make(map[string]struct{})
		m.inside[deviceID] = zones
	}
	zones[zoneID] = struct{}{}
	return nil
}
