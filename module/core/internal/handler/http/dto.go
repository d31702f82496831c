package http

import (
	"time"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

// locationRequest is what a browser page posts from the geolocation API.
type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
	Timestamp int64    `json:"timestamp" validate:"gte=0"`
}

type locationResponse struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type checkResponse struct {
	Events []domain.ZoneEvent `json:"events"`
}

func toSample(deviceID string, req *locationRequest, now time.Time) *domain.Sample {
	ts := now
	if req.Timestamp > 0 {
		ts = time.Unix(req.Timestamp, 0)
	}
	return &domain.Sample{
		DeviceID:  deviceID,
		Location:  domain.Coordinate{Lat: *req.Latitude, Lon: *req.Longitude},
		Accuracy:  req.Accuracy,
		Timestamp: ts,
	}
}

func toLocationResponse(s *domain.Sample) locationResponse {
	return locationResponse{
		DeviceID:  s.DeviceID,
		Latitude:  s.Location.Lat,
		Longitude: s.Location.Lon,
		Accuracy:  s.Accuracy,
		Timestamp: s.Timestamp.Unix(),
	}
}
