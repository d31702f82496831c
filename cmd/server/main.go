package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/kkkk2058/portfolio/config"
	"github.com/kkkk2058/portfolio/module/core"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("info").Fatalf("config: %v", err)
	}
	log := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zones, err := config.LoadZones(cfg.ZonesFile)
	if err != nil {
		log.Fatalf("zones: %v", err)
	}

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := config.RunMigrations(db, cfg); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	log.Info("database migrations applied")

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = config.NewRedis(ctx, cfg)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer func() { _ = rdb.Close() }()
		log.WithField("addr", cfg.RedisAddr).Info("proximity state in redis")
	} else {
		log.Info("proximity state in memory")
	}

	amqpConn, err := config.NewRabbitMQ(cfg, "geofence-server")
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	// Resubscribe after broker reconnects once the module exists.
	var built atomic.Pointer[core.Module]
	mqttClient, err := config.NewMQTT(cfg, log, func(mqtt.Client) {
		if m := built.Load(); m != nil {
			if err := m.StartSubscribers(); err != nil {
				log.WithError(err).Error("resubscribe")
			}
		}
	})
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	coreModule, err := core.Build(core.Deps{
		DB:          db,
		AMQP:        amqpConn,
		MQTT:        mqttClient,
		Redis:       rdb,
		Zones:       zones,
		MaxAccuracy: cfg.MaxAccuracy,
		APIKeys:     cfg.APIKeys,
		Logger:      log,
	})
	if err != nil {
		log.Fatalf("core module: %v", err)
	}
	defer func() { _ = coreModule.Close() }()

	if err := coreModule.StartSubscribers(); err != nil {
		log.Fatalf("start subscribers: %v", err)
	}
	built.Store(coreModule)

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient, nil)
	if rdb != nil {
		health = config.NewHealthChecker(db, amqpConn, mqttClient, rdb)
	}
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()
	log.WithField("zones", len(zones)).Infof("listening on :%s", cfg.HTTPPort)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}
