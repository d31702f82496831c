package main

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type locationMessage struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

func encode(s domain.Sample) (string, []byte, error) {
	payload, err := json.Marshal(locationMessage{
		DeviceID:  s.DeviceID,
		Latitude:  s.Location.Lat,
		Longitude: s.Location.Lon,
		Accuracy:  s.Accuracy,
		Timestamp: s.Timestamp.Unix(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("encode sample: %w", err)
	}
	return fmt.Sprintf("/devices/%s/location", s.DeviceID), payload, nil
}
