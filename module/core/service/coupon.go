package service

import (
	"context"
	"fmt"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database"
)

type CouponService struct {
	repo database.CouponRepository
}

func NewCouponService(repo database.CouponRepository) *CouponService {
	return &CouponService{repo: repo}
}

func (s *CouponService) ListCoupons(ctx context.Context, deviceID string) ([]domain.Coupon, error) {
	coupons, err := s.repo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("service: list coupons: %w", err)
	}
	if coupons == nil {
		coupons = []domain.Coupon{}
	}
	return coupons, nil
}
