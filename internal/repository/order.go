package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/ledgertx"
)

// OrderRepo is the order ledger backed by PostgreSQL.
type OrderRepo struct {
	db *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{db: db}
}

// Get returns the order with the given id.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return getOrder(ctx, r.db, selectOrder+` WHERE o.id = $1`, id)
}

// ActiveForCourier returns the order the courier is working on, or nil.
func (r *OrderRepo) ActiveForCourier(ctx context.Context, courierID uuid.UUID) (*domain.Order, error) {
	o, err := getOrder(ctx, r.db, selectOrder+`
		WHERE o.courier_id = $1 AND o.status = ANY($2)
		ORDER BY o.created_at DESC
		LIMIT 1`, courierID, activeStatuses())
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, nil
	}
	return o, err
}

// ActiveForCustomer returns the customer's non-terminal order, or nil.
func (r *OrderRepo) ActiveForCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Order, error) {
	o, err := getOrder(ctx, r.db, selectOrder+`
		WHERE o.customer_id = $1 AND o.status NOT IN ('delivered', 'cancelled')
		LIMIT 1`, customerID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, nil
	}
	return o, err
}

// ListByCustomer returns the customer's orders, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	var rows []orderRow
	if err := pgxscan.Select(ctx, r.db, &rows, selectOrder+`
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC`, customerID); err != nil {
		return nil, fmt.Errorf("list orders of customer %s: %w", customerID, err)
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toDomain())
	}
	return out, nil
}

// BeginSearch moves a pending order to searching_driver.
func (r *OrderRepo) BeginSearch(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE orders SET status = 'searching_driver'
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("begin search %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return r.missingOr(ctx, id, domain.ErrInvalidTransition)
	}
	return nil
}

// AcceptOrder binds courierID to the order if, and only if, the order is still searching_driver
// and the courier is available. The order row is claimed before the courier, so every
// caller after the winner, the winning courier included, gets ErrAlreadyAssigned.
func (r *OrderRepo) AcceptOrder(ctx context.Context, orderID, courierID uuid.UUID, at time.Time) (*domain.Order, *domain.Courier, error) {
	var (
		order   *domain.Order
		courier domain.Courier
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE orders
			SET courier_id = $2, status = 'accepted', accepted_at = $3
			WHERE id = $1 AND status = 'searching_driver'
		`, orderID, courierID, at)
		if err != nil {
			return fmt.Errorf("accept order %s: %w", orderID, err)
		}
		if ct.RowsAffected() == 0 {
			return r.missingOr(ctx, orderID, domain.ErrAlreadyAssigned)
		}

		ct, err = tx.Exec(ctx, `
			UPDATE couriers SET is_available = false, updated_at = now()
			WHERE id = $1 AND is_available
		`, courierID)
		if err != nil {
			return fmt.Errorf("reserve courier %s: %w", courierID, err)
		}
		if ct.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM couriers WHERE id = $1)`, courierID).Scan(&exists); err != nil {
				return fmt.Errorf("check courier %s: %w", courierID, err)
			}
			if !exists {
				return domain.ErrCourierNotFound
			}
			return domain.ErrActiveOrderExists
		}

		order, err = getOrder(ctx, tx, selectOrder+` WHERE o.id = $1`, orderID)
		if err != nil {
			return err
		}
		var row courierRow
		if err := pgxscan.Get(ctx, tx, &row, selectCourier+` WHERE id = $1`, courierID); err != nil {
			return fmt.Errorf("load courier %s: %w", courierID, err)
		}
		courier = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, &courier, nil
}

// CancelSearching cancels the order if it is still searching_driver.
func (r *OrderRepo) CancelSearching(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE orders SET status = 'cancelled'
		WHERE id = $1 AND status = 'searching_driver'
	`, id)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return r.missingOr(ctx, id, domain.ErrInvalidTransition)
	}
	return nil
}

// CancelStale cancels every order still searching_driver that was created before cutoff
// and returns the cancelled orders (id and customer only).
func (r *OrderRepo) CancelStale(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE orders SET status = 'cancelled'
		WHERE status = 'searching_driver' AND created_at < $1
		RETURNING id, customer_id
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("cancel stale orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o := domain.Order{Status: domain.OrderCancelled}
		if err := rows.Scan(&o.ID, &o.CustomerID); err != nil {
			return nil, fmt.Errorf("scan stale order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cancel stale orders: %w", err)
	}
	return out, nil
}

func (r *OrderRepo) missingOr(ctx context.Context, id uuid.UUID, conflict error) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order %s: %w", id, err)
	}
	if !exists {
		return domain.ErrOrderNotFound
	}
	return conflict
}

func getOrder(ctx context.Context, q pgxscan.Querier, sql string, args ...any) (*domain.Order, error) {
	var row orderRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		if IsNotFound(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return row.toDomain(), nil
}

// WithTx opens a transaction and executes fn within it.
func (r *OrderRepo) WithTx(ctx context.Context, fn func(tx ledgertx.Repository) error) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		return fn(&TxRepo{tx: tx})
	})
}

func (r *OrderRepo) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
