package core

import (
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/geofence"
	handler "github.com/kkkk2058/portfolio/module/core/internal/handler/http"
	"github.com/kkkk2058/portfolio/module/core/internal/handler/subscriber"
	"github.com/kkkk2058/portfolio/module/core/internal/handler/ws"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database/postgres"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/publisher"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/publisher/rabbitmq"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/state"
	"github.com/kkkk2058/portfolio/module/core/service"
)

// EventQueue is the durable queue every zone event lands in.
const EventQueue = rabbitmq.QueueName

// EventMessage is the JSON body of a zone event on the broker.
type EventMessage = rabbitmq.EventMessage

// DeclareEvents declares the zone event exchange and queue on ch.
func DeclareEvents(ch *amqp.Channel) error {
	return rabbitmq.Declare(ch)
}

// Deps are the connections and settings the module is built from. Redis is
// optional; without it proximity state lives in process memory.
type Deps struct {
	DB          *sql.DB
	AMQP        *amqp.Connection
	MQTT        mqtt.Client
	Redis       *redis.Client
	Zones       []domain.Zone
	MaxAccuracy float64
	APIKeys     []string
	Logger      *logrus.Logger
}

type Module struct {
	LocationSvc *service.LocationService
	GeofenceSvc *service.GeofenceService
	CouponSvc   *service.CouponService
	handler     *handler.DeviceHandler
	hub         *ws.Hub
	subscriber  *subscriber.LocationSubscriber
	eventPub    *rabbitmq.ZoneEventPublisher
	apiKeys     []string
	logger      *logrus.Logger
}

func Build(d Deps) (*Module, error) {
	index, err := geofence.NewIndex(d.Zones)
	if err != nil {
		return nil, fmt.Errorf("zone index: %w", err)
	}

	var store state.ProximityStore = state.NewMemoryStore()
	if d.Redis != nil {
		store = state.NewRedisStore(d.Redis)
	}

	locationRepo := postgres.NewLocationRepo(d.DB)
	couponRepo := postgres.NewCouponRepo(d.DB)

	eventPub, err := rabbitmq.NewZoneEventPublisher(d.AMQP)
	if err != nil {
		return nil, fmt.Errorf("zone event publisher: %w", err)
	}
	hub := ws.NewHub(d.Logger)

	locationSvc := service.NewLocationService(locationRepo)
	couponSvc := service.NewCouponService(couponRepo)
	geofenceSvc := service.NewGeofenceService(
		index,
		store,
		couponRepo,
		[]publisher.ZoneEventPublisher{eventPub, hub},
		d.MaxAccuracy,
		d.Logger,
	)

	h := handler.NewDeviceHandler(locationSvc, geofenceSvc, couponSvc, d.Logger)
	sub := subscriber.NewLocationSubscriber(d.MQTT, locationSvc, geofenceSvc, d.Logger)

	return &Module{
		LocationSvc: locationSvc,
		GeofenceSvc: geofenceSvc,
		CouponSvc:   couponSvc,
		handler:     h,
		hub:         hub,
		subscriber:  sub,
		eventPub:    eventPub,
		apiKeys:     d.APIKeys,
		logger:      d.Logger,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	api := r.Group("", handler.APIKeyAuth(m.apiKeys, m.logger))
	m.handler.Register(api)
	m.hub.Register(api)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// Close disconnects WebSocket clients and releases the broker channel.
func (m *Module) Close() error {
	m.hub.Close()
	return m.eventPub.Close()
}
