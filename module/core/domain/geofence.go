package domain

import "time"

type Coordinate struct {
	Lat float64 `json:"latitude" yaml:"latitude"`
	Lon float64 `json:"longitude" yaml:"longitude"`
}

// Zone is a circular geofence around Center. Radius is in meters.
type Zone struct {
	ID     string     `json:"id" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Center Coordinate `json:"center" yaml:"center"`
	Radius float64    `json:"radius" yaml:"radius"`
	Reward string     `json:"reward" yaml:"reward"`
}

type Transition string

const (
	ZoneEntered Transition = "zone_entered"
	ZoneExited  Transition = "zone_exited"
)

type ZoneEvent struct {
	ID         string     `json:"id"`
	DeviceID   string     `json:"device_id"`
	ZoneID     string     `json:"zone_id"`
	Transition Transition `json:"event"`
	Location   Coordinate `json:"location"`
	Distance   float64    `json:"distance"`
	Reward     string     `json:"reward,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}
