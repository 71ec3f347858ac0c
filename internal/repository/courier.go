package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
)

// CourierRepo is the courier roster backed by PostgreSQL.
type CourierRepo struct {
	db *pgxpool.Pool
}

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *pgxpool.Pool) *CourierRepo {
	return &CourierRepo{db: db}
}

// Get returns the courier with the given id.
func (r *CourierRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Courier, error) {
	var row courierRow
	if err := pgxscan.Get(ctx, r.db, &row, selectCourier+` WHERE id = $1`, id); err != nil {
		if IsNotFound(err) {
			return nil, domain.ErrCourierNotFound
		}
		return nil, fmt.Errorf("get courier %s: %w", id, err)
	}
	c := row.toDomain()
	return &c, nil
}

// ListDispatchable returns couriers that are online, available and located, in roster order.
func (r *CourierRepo) ListDispatchable(ctx context.Context) ([]domain.Courier, error) {
	var rows []courierRow
	if err := pgxscan.Select(ctx, r.db, &rows, selectCourier+`
		WHERE is_online AND is_available AND lat IS NOT NULL AND lng IS NOT NULL
		ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list dispatchable couriers: %w", err)
	}
	out := make([]domain.Courier, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SetOnline marks the courier online at p.
func (r *CourierRepo) SetOnline(ctx context.Context, id uuid.UUID, p geo.Point) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE couriers SET is_online = true, lat = $2, lng = $3, updated_at = now()
		WHERE id = $1
	`, id, p.Lat, p.Lng)
	if err != nil {
		return fmt.Errorf("set courier %s online: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCourierNotFound
	}
	return nil
}

// SetOffline marks the courier offline unless it holds an active order.
func (r *CourierRepo) SetOffline(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE couriers SET is_online = false, updated_at = now()
		WHERE id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM orders
		      WHERE courier_id = $1 AND status = ANY($2)
		  )
	`, id, activeStatuses())
	if err != nil {
		return fmt.Errorf("set courier %s offline: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return domain.ErrActiveOrderExists
	}
	return nil
}

// UpdateLocation stores the courier's latest position.
func (r *CourierRepo) UpdateLocation(ctx context.Context, id uuid.UUID, p geo.Point) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE couriers SET lat = $2, lng = $3, updated_at = now()
		WHERE id = $1
	`, id, p.Lat, p.Lng)
	if err != nil {
		return fmt.Errorf("update courier %s location: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCourierNotFound
	}
	return nil
}

// Stats returns the courier dashboard summary.
func (r *CourierRepo) Stats(ctx context.Context, id uuid.UUID) (domain.CourierStats, error) {
	var s domain.CourierStats
	err := r.db.QueryRow(ctx, `
		SELECT c.wallet_balance, c.is_online, c.is_available,
		       (SELECT COUNT(*) FROM orders o WHERE o.courier_id = c.id AND o.status = 'delivered')
		FROM couriers c
		WHERE c.id = $1
	`, id).Scan(&s.WalletBalance, &s.Online, &s.Available, &s.TotalDeliveries)
	if err != nil {
		if IsNotFound(err) {
			return domain.CourierStats{}, domain.ErrCourierNotFound
		}
		return domain.CourierStats{}, fmt.Errorf("courier %s stats: %w", id, err)
	}
	return s, nil
}

// Credits returns the courier's wallet credits, newest first.
func (r *CourierRepo) Credits(ctx context.Context, id uuid.UUID) ([]domain.WalletCredit, error) {
	var rows []creditRow
	if err := pgxscan.Select(ctx, r.db, &rows, `
		SELECT id, courier_id, order_id, amount, created_at
		FROM courier_wallet_credits
		WHERE courier_id = $1
		ORDER BY created_at DESC, id DESC`, id); err != nil {
		return nil, fmt.Errorf("list credits of %s: %w", id, err)
	}
	out := make([]domain.WalletCredit, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.WalletCredit{
			ID:        row.ID,
			CourierID: row.CourierID,
			OrderID:   row.OrderID,
			Amount:    row.Amount,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}
