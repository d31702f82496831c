package subscriber

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

// TopicPattern matches every device location topic.
const TopicPattern = "/devices/+/location"

type locationService interface {
	SaveLocation(ctx context.Context, sample *domain.Sample) error
}

type geofenceService interface {
	Check(ctx context.Context, sample *domain.Sample) ([]domain.ZoneEvent, error)
}

type locationMessage struct {
	DeviceID  string   `json:"device_id" validate:"required,max=64"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
	Timestamp int64    `json:"timestamp" validate:"gt=0"`
}

type LocationSubscriber struct {
	client      mqtt.Client
	locationSvc locationService
	geofenceSvc geofenceService
	validate    *validator.Validate
	logger      *logrus.Logger
}

func NewLocationSubscriber(client mqtt.Client, locationSvc locationService, geofenceSvc geofenceService, logger *logrus.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:      client,
		locationSvc: locationSvc,
		geofenceSvc: geofenceSvc,
		validate:    validator.New(),
		logger:      logger,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(TopicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	log := s.logger.WithFields(logrus.Fields{"component": "mqtt", "topic": msg.Topic()})

	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.WithError(err).Warn("invalid location message")
		return
	}

	if err := s.validate.Struct(&raw); err != nil {
		log.WithError(err).Warn("location message failed validation")
		return
	}

	sample := toSample(&raw)
	log = log.WithField("device_id", sample.DeviceID)

	ctx := context.Background()

	if err := s.locationSvc.SaveLocation(ctx, sample); err != nil {
		log.WithError(err).Error("save location")
		return
	}

	events, err := s.geofenceSvc.Check(ctx, sample)
	if err != nil {
		log.WithError(err).Error("geofence check")
	}
	for _, e := range events {
		log.WithFields(logrus.Fields{"zone_id": e.ZoneID, "event": e.Transition}).Info("zone transition")
	}
}

func toSample(m *locationMessage) *domain.Sample {
	return &domain.Sample{
		DeviceID:  m.DeviceID,
		Location:  domain.Coordinate{Lat: *m.Latitude, Lon: *m.Longitude},
		Accuracy:  m.Accuracy,
		Timestamp: time.Unix(m.Timestamp, 0),
	}
}
