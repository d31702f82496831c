package domain

import "time"

// Sample is one position fix reported by a device. Accuracy is the reported
// horizontal accuracy in meters; zero means the source did not report one.
type Sample struct {
	DeviceID  string     `json:"device_id"`
	Location  Coordinate `json:"location"`
	Accuracy  float64    `json:"accuracy"`
	Timestamp time.Time  `json:"timestamp"`
}

type Device struct {
	DeviceID string `json:"device_id"`
}

type HistoryQuery struct {
	DeviceID string
	Start    time.Time
	End      time.Time
}
