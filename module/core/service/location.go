package service

import (
	"context"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database"
)

type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) SaveLocation(ctx context.Context, sample *domain.Sample) error {
	return s.repo.Insert(ctx, sample)
}

func (s *LocationService) GetLatest(ctx context.Context, deviceID string) (*domain.Sample, error) {
	return s.repo.GetLatest(ctx, deviceID)
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
	return s.repo.GetHistory(ctx, query)
}

func (s *LocationService) GetAllDevices(ctx context.Context) ([]domain.Device, error) {
	return s.repo.GetAllDevices(ctx)
}
