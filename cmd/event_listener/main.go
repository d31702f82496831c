package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/kkkk2058/portfolio/config"
	"github.com/kkkk2058/portfolio/module/core"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("info").Fatalf("config: %v", err)
	}
	log := config.NewLogger(cfg.LogLevel)

	conn, err := config.NewRabbitMQ(cfg, "geofence-event-listener")
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbitmq channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := core.DeclareEvents(ch); err != nil {
		log.Fatalf("declare: %v", err)
	}

	msgs, err := ch.Consume(core.EventQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("queue", core.EventQueue).Info("waiting for zone events")

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				return
			}
			handle(log, msg)
		}
	}
}

func handle(log *logrus.Logger, msg amqp.Delivery) {
	var evt core.EventMessage
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		log.WithError(err).Warn("dropping malformed event")
		_ = msg.Nack(false, false)
		return
	}

	entry := log.WithFields(logrus.Fields{
		"event_id":  evt.ID,
		"device_id": evt.DeviceID,
		"zone_id":   evt.ZoneID,
		"event":     evt.Event,
		"distance":  evt.Distance,
	})
	if evt.Reward != "" {
		entry = entry.WithField("reward", evt.Reward)
	}
	entry.Info("zone event")

	_ = msg.Ack(false)
}
