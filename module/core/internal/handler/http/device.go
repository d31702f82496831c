package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database"
)

type locationService interface {
	SaveLocation(ctx context.Context, sample *domain.Sample) error
	GetLatest(ctx context.Context, deviceID string) (*domain.Sample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error)
	GetAllDevices(ctx context.Context) ([]domain.Device, error)
}

type geofenceService interface {
	Check(ctx context.Context, sample *domain.Sample) ([]domain.ZoneEvent, error)
	Zones() []domain.Zone
}

type couponService interface {
	ListCoupons(ctx context.Context, deviceID string) ([]domain.Coupon, error)
}

type DeviceHandler struct {
	locationSvc locationService
	geofenceSvc geofenceService
	couponSvc   couponService
	validate    *validator.Validate
	logger      *logrus.Logger
	now         func() time.Time
}

func NewDeviceHandler(locationSvc locationService, geofenceSvc geofenceService, couponSvc couponService, logger *logrus.Logger) *DeviceHandler {
	return &DeviceHandler{
		locationSvc: locationSvc,
		geofenceSvc: geofenceSvc,
		couponSvc:   couponSvc,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

func (h *DeviceHandler) Register(r *gin.RouterGroup) {
	r.GET("/zones", h.GetZones)
	r.GET("/devices", h.GetAllDevices)
	r.POST("/devices/:device_id/location", h.ReportLocation)
	r.GET("/devices/:device_id/location", h.GetLatestLocation)
	r.GET("/devices/:device_id/history", h.GetHistory)
	r.GET("/devices/:device_id/coupons", h.GetCoupons)
}

func (h *DeviceHandler) GetZones(c *gin.Context) {
	c.JSON(http.StatusOK, h.geofenceSvc.Zones())
}

func (h *DeviceHandler) GetAllDevices(c *gin.Context) {
	devices, err := h.locationSvc.GetAllDevices(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to fetch devices")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch devices"})
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}

	c.JSON(http.StatusOK, devices)
}

// deviceID reads the device_id path param and writes a 400 when it does not
// fit the devices column.
func (h *DeviceHandler) deviceID(c *gin.Context) (string, bool) {
	id := c.Param("device_id")
	if err := h.validate.Var(id, "required,max=64"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device_id"})
		return "", false
	}
	return id, true
}

// ReportLocation stores a sample and runs it through the geofences. The
// response lists the zone transitions the sample caused.
func (h *DeviceHandler) ReportLocation(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}
	log := h.logger.WithFields(logrus.Fields{"handler": "http", "device_id": deviceID})

	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sample := toSample(deviceID, &req, h.now())
	ctx := c.Request.Context()

	if err := h.locationSvc.SaveLocation(ctx, sample); err != nil {
		log.WithError(err).Error("save location failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save location"})
		return
	}

	events, err := h.geofenceSvc.Check(ctx, sample)
	if err != nil {
		log.WithError(err).Error("geofence check failed")
	}
	if events == nil {
		events = []domain.ZoneEvent{}
	}

	c.JSON(http.StatusAccepted, checkResponse{Events: events})
}

func (h *DeviceHandler) GetLatestLocation(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	s, err := h.locationSvc.GetLatest(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		h.logger.WithError(err).WithField("device_id", deviceID).Error("failed to fetch location")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(s))
}

func (h *DeviceHandler) GetHistory(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	if end < start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	query := &domain.HistoryQuery{
		DeviceID: deviceID,
		Start:    time.Unix(start, 0),
		End:      time.Unix(end, 0),
	}

	samples, err := h.locationSvc.GetHistory(c.Request.Context(), query)
	if err != nil {
		h.logger.WithError(err).WithField("device_id", deviceID).Error("failed to fetch history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(samples))
	for i := range samples {
		results[i] = toLocationResponse(&samples[i])
	}
	c.JSON(http.StatusOK, results)
}

func (h *DeviceHandler) GetCoupons(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	coupons, err := h.couponSvc.ListCoupons(c.Request.Context(), deviceID)
	if err != nil {
		h.logger.WithError(err).WithField("device_id", deviceID).Error("failed to fetch coupons")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch coupons"})
		return
	}

	c.JSON(http.StatusOK, coupons)
}
