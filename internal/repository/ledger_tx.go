package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/ledgertx"
)

// TxRepo is the order ledger bound to one transaction.
type TxRepo struct {
	tx pgx.Tx
}

var _ ledgertx.Repository = (*TxRepo)(nil)

// LockCustomer takes a row lock on the customer, serializing order placement per customer.
func (r *TxRepo) LockCustomer(ctx context.Context, customerID uuid.UUID) error {
	var id uuid.UUID
	err := r.tx.QueryRow(ctx, `SELECT id FROM customers WHERE id = $1 FOR UPDATE`, customerID).Scan(&id)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("customer %s: %w", customerID, apperr.NotFound)
		}
		return fmt.Errorf("lock customer %s: %w", customerID, err)
	}
	return nil
}

// HasActiveOrder reports whether the customer has an order that is neither delivered nor cancelled.
func (r *TxRepo) HasActiveOrder(ctx context.Context, customerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE customer_id = $1 AND status NOT IN ('delivered', 'cancelled')
		)`, customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active order of %s: %w", customerID, err)
	}
	return exists, nil
}

// GetHotel returns the hotel with the given id.
func (r *TxRepo) GetHotel(ctx context.Context, id uuid.UUID) (*domain.Hotel, error) {
	h := domain.Hotel{ID: id}
	err := r.tx.QueryRow(ctx, `SELECT name, lat, lng FROM hotels WHERE id = $1`, id).
		Scan(&h.Name, &h.Location.Lat, &h.Location.Lng)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("hotel %s: %w", id, apperr.NotFound)
		}
		return nil, fmt.Errorf("get hotel %s: %w", id, err)
	}
	return &h, nil
}

// InsertOrder inserts the order and its items. A concurrent active order of the same customer
// surfaces as ErrActiveOrderExists through the partial unique index.
func (r *TxRepo) InsertOrder(ctx context.Context, o *domain.Order, items []domain.OrderItem) error {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO orders (
			id, status, customer_id, hotel_id, delivery_lat, delivery_lng,
			delivery_distance_km, courier_earning, total_amount, final_amount,
			coupon_code, delivery_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, o.ID, string(o.Status), o.CustomerID, o.Hotel.ID, o.DeliveryLocation.Lat, o.DeliveryLocation.Lng,
		o.DeliveryDistanceKm, o.CourierEarning, o.TotalAmount, o.FinalAmount,
		o.CouponCode, o.DeliveryCode).Scan(&o.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return domain.ErrActiveOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if len(items) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{o.ID, it.FoodID, it.Quantity, it.Price})
	}
	if _, err := r.tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"order_id", "food_id", "quantity", "price_at_time"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// GetOrderForUpdate loads the order and locks its row until the transaction ends.
func (r *TxRepo) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return getOrder(ctx, r.tx, selectOrder+` WHERE o.id = $1 FOR UPDATE OF o`, id)
}

// UpdateOrderStatus persists o.Status and its timestamps, conditional on the stored status being from.
func (r *TxRepo) UpdateOrderStatus(ctx context.Context, o *domain.Order, from domain.OrderStatus) error {
	ct, err := r.tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, courier_id = $3, accepted_at = $4, delivered_at = $5
		WHERE id = $1 AND status = $6
	`, o.ID, string(o.Status), o.CourierID, o.AcceptedAt, o.DeliveredAt, string(from))
	if err != nil {
		return fmt.Errorf("update order %s status: %w", o.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", domain.ErrInvalidTransition, o.ID, from)
	}
	return nil
}

// IncrementCodeAttempts records a failed delivery code and returns the new count.
func (r *TxRepo) IncrementCodeAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `
		UPDATE orders SET code_attempts = code_attempts + 1
		WHERE id = $1
		RETURNING code_attempts
	`, id).Scan(&n)
	if err != nil {
		if IsNotFound(err) {
			return 0, domain.ErrOrderNotFound
		}
		return 0, fmt.Errorf("increment code attempts %s: %w", id, err)
	}
	return n, nil
}

// GetCourier returns the courier with the given id.
func (r *TxRepo) GetCourier(ctx context.Context, id uuid.UUID) (*domain.Courier, error) {
	var row courierRow
	if err := pgxscan.Get(ctx, r.tx, &row, selectCourier+` WHERE id = $1`, id); err != nil {
		if IsNotFound(err) {
			return nil, domain.ErrCourierNotFound
		}
		return nil, fmt.Errorf("get courier %s: %w", id, err)
	}
	c := row.toDomain()
	return &c, nil
}

// InsertWalletCredit records a delivery payout; a second credit for the same order is a conflict.
func (r *TxRepo) InsertWalletCredit(ctx context.Context, c *domain.WalletCredit) error {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO courier_wallet_credits (courier_id, order_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.CourierID, c.OrderID, c.Amount).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return fmt.Errorf("order %s already credited: %w", c.OrderID, apperr.Conflict)
		}
		return fmt.Errorf("insert wallet credit: %w", err)
	}
	return nil
}

// CreditCourier adds amount to the courier balance and makes the courier available again.
func (r *TxRepo) CreditCourier(ctx context.Context, courierID uuid.UUID, amount float64) error {
	ct, err := r.tx.Exec(ctx, `
		UPDATE couriers
		SET wallet_balance = wallet_balance + $2, is_available = true, updated_at = now()
		WHERE id = $1
	`, courierID, amount)
	if err != nil {
		return fmt.Errorf("credit courier %s: %w", courierID, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCourierNotFound
	}
	return nil
}

