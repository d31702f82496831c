package postgres

import (
	"context"
	"database/sql"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/database"
)

var _ database.CouponRepository = (*CouponRepo)(nil)

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

func (r *CouponRepo) Collect(ctx context.Context, c *domain.Coupon) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO collected_coupons (id, device_id, zone_id, reward, collected_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (device_id, zone_id) DO NOTHING`,
		c.ID, c.DeviceID, c.ZoneID, c.Reward, c.CollectedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CouponRepo) ListByDevice(ctx context.Context, deviceID string) ([]domain.Coupon, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, zone_id, reward, collected_at FROM collected_coupons WHERE device_id = $1 ORDER BY collected_at ASC`,
		deviceID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Coupon
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(&c.ID, &c.DeviceID, &c.ZoneID, &c.Reward, &c.CollectedAt); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
