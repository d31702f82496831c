package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

type mockLocationRepo struct {
	insertFn        func(ctx context.Context, s *domain.Sample) error
	getLatestFn     func(ctx context.Context, deviceID string) (*domain.Sample, error)
	getHistoryFn    func(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error)
	getAllDevicesFn func(ctx context.Context) ([]domain.Device, error)
}

func (m *mockLocationRepo) Insert(ctx context.Context, s *domain.Sample) error {
	return m.insertFn(ctx, s)
}

func (m *mockLocationRepo) GetLatest(ctx context.Context, deviceID string) (*domain.Sample, error) {
	return m.getLatestFn(ctx, deviceID)
}

func (m *mockLocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
	return m.getHistoryFn(ctx, query)
}

func (m *mockLocationRepo) GetAllDevices(ctx context.Context) ([]domain.Device, error) {
	return m.getAllDevicesFn(ctx)
}

func TestSaveLocation_Success(t *testing.T) {
	var inserted *domain.Sample
	repo := &mockLocationRepo{
		insertFn: func(_ context.Context, s *domain.Sample) error {
			inserted = s
			return nil
		},
	}

	svc := NewLocationService(repo)
	err := svc.SaveLocation(context.Background(), &domain.Sample{
		DeviceID:  "phone-1",
		Location:  domain.Coordinate{Lat: 37.47915, Lon: 126.9059},
		Timestamp: time.Unix(1715003456, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted == nil {
		t.Fatal("expected Insert to be called")
	}
	if inserted.DeviceID != "phone-1" {
		t.Errorf("expected phone-1, got %s", inserted.DeviceID)
	}
}

func TestSaveLocation_RepoError(t *testing.T) {
	repo := &mockLocationRepo{
		insertFn: func(_ context.Context, _ *domain.Sample) error {
			return errors.New("db error")
		},
	}

	svc := NewLocationService(repo)
	if err := svc.SaveLocation(context.Background(), &domain.Sample{DeviceID: "X"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetLatest_Success(t *testing.T) {
	ts := time.Unix(1715003456, 0)
	repo := &mockLocationRepo{
		getLatestFn: func(_ context.Context, deviceID string) (*domain.Sample, error) {
			return &domain.Sample{
				DeviceID:  deviceID,
				Location:  domain.Coordinate{Lat: 37.47915, Lon: 126.9059},
				Timestamp: ts,
			}, nil
		},
	}

	svc := NewLocationService(repo)
	result, err := svc.GetLatest(context.Background(), "phone-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DeviceID != "phone-1" {
		t.Errorf("expected phone-1, got %s", result.DeviceID)
	}
}

func TestGetHistory_Success(t *testing.T) {
	repo := &mockLocationRepo{
		getHistoryFn: func(_ context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
			return []domain.Sample{
				{DeviceID: query.DeviceID, Location: domain.Coordinate{Lat: 37.4791, Lon: 126.9059}, Timestamp: query.Start},
				{DeviceID: query.DeviceID, Location: domain.Coordinate{Lat: 37.4836, Lon: 126.9059}, Timestamp: query.End},
			}, nil
		},
	}

	svc := NewLocationService(repo)
	results, err := svc.GetHistory(context.Background(), &domain.HistoryQuery{
		DeviceID: "phone-1",
		Start:    time.Unix(1715000000, 0),
		End:      time.Unix(1715009999, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestGetAllDevices_RepoError(t *testing.T) {
	repo := &mockLocationRepo{
		getAllDevicesFn: func(_ context.Context) ([]domain.Device, error) {
			return nil, errors.New("db error")
		},
	}

	if _, err := NewLocationService(repo).GetAllDevices(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
