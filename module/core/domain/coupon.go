package domain

import "time"

type Coupon struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	ZoneID      string    `json:"zone_id"`
	Reward      string    `json:"reward"`
	CollectedAt time.Time `json:"collected_at"`
}
