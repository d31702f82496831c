package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, s *domain.Sample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO device_locations (device_id, latitude, longitude, accuracy, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		s.DeviceID, s.Location.Lat, s.Location.Lon, s.Accuracy, s.Timestamp,
	)
	return err
}

func (r *LocationRepo) GetLatest(ctx context.Context, deviceID string) (*domain.Sample, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT device_id, latitude, longitude, accuracy, timestamp FROM device_locations WHERE device_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		deviceID,
	)

	var s domain.Sample
	if err := row.Scan(&s.DeviceID, &s.Location.Lat, &s.Location.Lon, &s.Accuracy, &s.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT device_id, latitude, longitude, accuracy, timestamp FROM device_locations WHERE device_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp ASC`,
		query.DeviceID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Sample
	for rows.Next() {
		var s domain.Sample
		if err := rows.Scan(&s.DeviceID, &s.Location.Lat, &s.Location.Lon, &s.Accuracy, &s.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

func (r *LocationRepo) GetAllDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT device_id FROM device_locations ORDER BY device_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.DeviceID); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}
