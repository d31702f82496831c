package database

import (
	"context"
	"errors"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

var ErrNotFound = errors.New("not found")

type LocationRepository interface {
	Insert(ctx context.Context, s *domain.Sample) error
	GetLatest(ctx context.Context, deviceID string) (*domain.Sample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error)
	GetAllDevices(ctx context.Context) ([]domain.Device, error)
}

type CouponRepository interface {
	// Collect stores c unless the device already holds a coupon for the zone.
	// It reports whether a new row was written.
	Collect(ctx context.Context, c *domain.Coupon) (bool, error)
	ListByDevice(ctx context.Context, deviceID string) ([]domain.Coupon, error)
}
