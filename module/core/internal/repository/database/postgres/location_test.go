package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database"
)

var sampleColumns = []string{"device_id", "latitude", "longitude", "accuracy", "timestamp"}

func TestInsert_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO device_locations`).
		WithArgs("phone-1", 37.47915, 126.9059, 12.5, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewLocationRepo(db)
	err = repo.Insert(context.Background(), &domain.Sample{
		DeviceID:  "phone-1",
		Location:  domain.Coordinate{Lat: 37.47915, Lon: 126.9059},
		Accuracy:  12.5,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsert_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO device_locations`).
		WithArgs("phone-1", 37.47915, 126.9059, 0.0, ts).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewLocationRepo(db)
	err = repo.Insert(context.Background(), &domain.Sample{
		DeviceID:  "phone-1",
		Location:  domain.Coordinate{Lat: 37.47915, Lon: 126.9059},
		Timestamp: ts,
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetLatest_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	rows := sqlmock.NewRows(sampleColumns).
		AddRow("phone-1", 37.47915, 126.9059, 8.0, ts)

	mock.ExpectQuery(`SELECT device_id, latitude, longitude, accuracy, timestamp FROM device_locations WHERE device_id = (.+) ORDER BY timestamp DESC LIMIT 1`).
		WithArgs("phone-1").
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	s, err := repo.GetLatest(context.Background(), "phone-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DeviceID != "phone-1" {
		t.Errorf("expected phone-1, got %s", s.DeviceID)
	}
	if s.Location.Lat != 37.47915 {
		t.Errorf("expected 37.47915, got %f", s.Location.Lat)
	}
	if s.Accuracy != 8.0 {
		t.Errorf("expected accuracy 8, got %f", s.Accuracy)
	}
	if !s.Timestamp.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, s.Timestamp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetLatest_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows(sampleColumns)
	mock.ExpectQuery(`SELECT device_id, latitude, longitude, accuracy, timestamp FROM device_locations WHERE device_id = (.+)`).
		WithArgs("UNKNOWN").
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	_, err = repo.GetLatest(context.Background(), "UNKNOWN")
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetHistory_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts1 := time.Unix(1715000000, 0)
	ts2 := time.Unix(1715005000, 0)
	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)

	rows := sqlmock.NewRows(sampleColumns).
		AddRow("phone-1", 37.4791, 126.9059, 0.0, ts1).
		AddRow("phone-1", 37.4836, 126.9059, 0.0, ts2)

	mock.ExpectQuery(`SELECT device_id, latitude, longitude, accuracy, timestamp FROM device_locations WHERE device_id = (.+) AND timestamp >= (.+) AND timestamp <= (.+) ORDER BY timestamp ASC`).
		WithArgs("phone-1", start, end).
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	results, err := repo.GetHistory(context.Background(), &domain.HistoryQuery{
		DeviceID: "phone-1",
		Start:    start,
		End:      end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Location.Lat != 37.4836 {
		t.Errorf("expected 37.4836, got %f", results[1].Location.Lat)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetHistory_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)

	mock.ExpectQuery(`SELECT device_id, latitude, longitude, accuracy, timestamp FROM device_locations`).
		WithArgs("phone-1", start, end).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewLocationRepo(db)
	_, err = repo.GetHistory(context.Background(), &domain.HistoryQuery{
		DeviceID: "phone-1",
		Start:    start,
		End:      end,
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetAllDevices_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"device_id"}).
		AddRow("phone-1").
		AddRow("phone-2")

	mock.ExpectQuery(`SELECT DISTINCT device_id FROM device_locations`).
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	results, err := repo.GetAllDevices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(results))
	}
	if results[0].DeviceID != "phone-1" {
		t.Errorf("expected phone-1, got %s", results[0].DeviceID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
