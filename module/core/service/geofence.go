package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/geofence"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/publisher"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/state"
)

type GeofenceService struct {
	mu          sync.Mutex
	index       *geofence.Index
	store       state.ProximityStore
	coupons     database.CouponRepository
	publishers  []publisher.ZoneEventPublisher
	maxAccuracy float64
	logger      *logrus.Logger

	now   func() time.Time
	newID func() string
}

// NewGeofenceService builds the service. maxAccuracy, in meters, drops samples
// whose reported accuracy is worse; zero disables the check.
func NewGeofenceService(
	index *geofence.Index,
	store state.ProximityStore,
	coupons database.CouponRepository,
	publishers []publisher.ZoneEventPublisher,
	maxAccuracy float64,
	logger *logrus.Logger,
) *GeofenceService {
	return &GeofenceService{
		index:       index,
		store:       store,
		coupons:     coupons,
		publishers:  publishers,
		maxAccuracy: maxAccuracy,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (s *GeofenceService) Zones() []domain.Zone {
	return s.index.Zones()
}

// Check runs one sample through every zone the device could have entered or
// left and returns the transitions it caused. Unusable samples are ignored.
// Proximity is persisted before coupons are collected and events published,
// so a failing sink never causes a transition to be emitted twice.
func (s *GeofenceService) Check(ctx context.Context, sample *domain.Sample) ([]domain.ZoneEvent, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "geofence",
		"device_id": sample.DeviceID,
	})

	if !geofence.ValidCoordinate(sample.Location) {
		log.Debug("ignoring sample with invalid coordinate")
		return nil, nil
	}
	if s.maxAccuracy > 0 && sample.Accuracy > s.maxAccuracy {
		log.WithField("accuracy", sample.Accuracy).Debug("ignoring low-accuracy sample")
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	insideIDs, err := s.store.InsideZones(ctx, sample.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("service: load proximity: %w", err)
	}

	inside := make(map[string]bool, len(insideIDs))
	for _, id := range insideIDs {
		inside[id] = true
	}

	zones := s.index.Candidates(sample.Location)
	for _, id := range insideIDs {
		if z, ok := s.index.Zone(id); ok && !containsZone(zones, id) {
			zones = append(zones, z)
		}
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })

	ts := sample.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	var (
		events []domain.ZoneEvent
		errs   []error
	)
	for _, z := range zones {
		next, t, ok := geofence.Step(z, inside[z.ID], sample.Location)
		if !ok {
			continue
		}
		// Transitions already persisted are still delivered below.
		if err := s.store.SetInside(ctx, sample.DeviceID, z.ID, next); err != nil {
			errs = append(errs, fmt.Errorf("service: save proximity: %w", err))
			break
		}

		ev := domain.ZoneEvent{
			ID:         s.newID(),
			DeviceID:   sample.DeviceID,
			ZoneID:     z.ID,
			Transition: t,
			Location:   sample.Location,
			Distance:   geofence.Distance(z.Center, sample.Location),
			Timestamp:  ts,
		}
		if t == domain.ZoneEntered {
			ev.Reward = z.Reward
		}
		events = append(events, ev)

		log.WithFields(logrus.Fields{
			"zone_id":  z.ID,
			"event":    t,
			"distance": ev.Distance,
		}).Info("zone transition")
	}

	for i := range events {
		if err := s.collect(ctx, &events[i]); err != nil {
			errs = append(errs, err)
		}
		for _, p := range s.publishers {
			if err := p.PublishEvent(ctx, &events[i]); err != nil {
				errs = append(errs, fmt.Errorf("service: publish %s: %w", events[i].Transition, err))
			}
		}
	}
	return events, errors.Join(errs...)
}

func (s *GeofenceService) collect(ctx context.Context, ev *domain.ZoneEvent) error {
	if ev.Transition != domain.ZoneEntered || ev.Reward == "" {
		return nil
	}
	created, err := s.coupons.Collect(ctx, &domain.Coupon{
		ID:          s.newID(),
		DeviceID:    ev.DeviceID,
		ZoneID:      ev.ZoneID,
		Reward:      ev.Reward,
		CollectedAt: ev.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("service: collect coupon: %w", err)
	}
	if created {
		s.logger.WithFields(logrus.Fields{
			"device_id": ev.DeviceID,
			"zone_id":   ev.ZoneID,
			"reward":    ev.Reward,
		}).Info("coupon collected")
	}
	return nil
}

func containsZone(zones []domain.Zone, id string) bool {
	for _, z := range zones {
		if z.ID == id {
			return true
		}
	}
	return false
}
