package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/publisher"
)

var _ publisher.ZoneEventPublisher = (*ZoneEventPublisher)(nil)

const (
	ExchangeName = "coupon.events"
	QueueName    = "zone_events"
)

type ZoneEventPublisher struct {
	ch *amqp.Channel
}

func NewZoneEventPublisher(conn *amqp.Connection) (*ZoneEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := Declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}

	return &ZoneEventPublisher{ch: ch}, nil
}

// Declare sets up the fanout exchange and the durable queue bound to it.
func Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// EventMessage is the wire form of a zone event.
type EventMessage struct {
	ID        string               `json:"id"`
	DeviceID  string               `json:"device_id"`
	ZoneID    string               `json:"zone_id"`
	Event     domain.Transition    `json:"event"`
	Location  EventMessageLocation `json:"location"`
	Distance  float64              `json:"distance"`
	Reward    string               `json:"reward,omitempty"`
	Timestamp int64                `json:"timestamp"`
}

type EventMessageLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func toEventMessage(e *domain.ZoneEvent) EventMessage {
	return EventMessage{
		ID:       e.ID,
		DeviceID: e.DeviceID,
		ZoneID:   e.ZoneID,
		Event:    e.Transition,
		Location: EventMessageLocation{
			Latitude:  e.Location.Lat,
			Longitude: e.Location.Lon,
		},
		Distance:  e.Distance,
		Reward:    e.Reward,
		Timestamp: e.Timestamp.Unix(),
	}
}

func (p *ZoneEventPublisher) PublishEvent(ctx context.Context, event *domain.ZoneEvent) error {
	body, err := json.Marshal(toEventMessage(event))
	if err != nil {
		return fmt.Errorf("marshal zone event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Body:         body,
	})
}

func (p *ZoneEventPublisher) Close() error {
	return p.ch.Close()
}
