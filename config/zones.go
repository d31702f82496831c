package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/geofence"
)

// DefaultZone is the coupon spot used when no catalogue file is configured.
var DefaultZone = domain.Zone{
	ID:     "campus-coupon",
	Name:   "Campus coupon spot",
	Center: domain.Coordinate{Lat: 37.47915, Lon: 126.90590},
	Radius: 100,
	Reward: "coffee-coupon",
}

type zoneFile struct {
	Zones []domain.Zone `yaml:"zones"`
}

// LoadZones reads the zone catalogue from path. An empty path yields DefaultZone.
func LoadZones(path string) ([]domain.Zone, error) {
	if path == "" {
		return []domain.Zone{DefaultZone}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}

	var f zoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse zones file: %w", err)
	}
	if len(f.Zones) == 0 {
		return nil, fmt.Errorf("zones file %s: no zones defined", path)
	}

	for _, z := range f.Zones {
		if err := geofence.ValidateZone(z); err != nil {
			return nil, fmt.Errorf("zones file %s: %w", path, err)
		}
	}
	return f.Zones, nil
}
