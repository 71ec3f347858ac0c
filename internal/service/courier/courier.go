package courier

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
)

// Wallet is the courier balance with its credit history.
type Wallet struct {
	Balance float64
	Credits []domain.WalletCredit
}

// Service coordinates courier presence, offers and dashboards.
type Service struct {
	repo             courierRepository
	orders           activeOrders
	dispatch         Dispatcher
	pub              Publisher
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates and configures a courier Service.
func NewService(r courierRepository, orders activeOrders, dispatch Dispatcher, pub Publisher, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		repo:             r,
		orders:           orders,
		dispatch:         dispatch,
		pub:              pub,
		operationTimeout: timeout,
		logger:           logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

func validatePoint(p geo.Point) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("coordinates out of range: %w", apperr.Invalid)
	}
	return nil
}

// GoOnline makes the courier visible to dispatch at p.
func (s *Service) GoOnline(ctx context.Context, id uuid.UUID, p geo.Point) error {
	if err := validatePoint(p); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.SetOnline(ctx, id, p); err != nil {
		return err
	}
	s.logger.Info("courier online", logx.String("event", "courier_online"), logx.UUID("courier_id", id))
	return nil
}

// GoOffline hides the courier from dispatch. Refused while the courier holds an order.
func (s *Service) GoOffline(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.SetOffline(ctx, id); err != nil {
		return err
	}
	s.logger.Info("courier offline", logx.String("event", "courier_offline"), logx.UUID("courier_id", id))
	return nil
}

// ReportLocation stores the position and relays it to the customer of the
// courier's active order, if there is one.
func (s *Service) ReportLocation(ctx context.Context, id uuid.UUID, p geo.Point) error {
	if err := validatePoint(p); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.UpdateLocation(ctx, id, p); err != nil {
		return err
	}
	order, err := s.orders.ActiveForCourier(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if err := s.pub.Publish(ctx, live.Event{
		Topic: live.CustomerTopic(order.CustomerID),
		Type:  domain.EventLocation,
		Data:  domain.LocationPing{OrderID: order.ID, Lat: p.Lat, Lng: p.Lng},
	}); err != nil {
		s.logger.Warn("location relay failed", logx.UUID("courier_id", id), logx.Err(err))
	}
	return nil
}

// Accept claims the offered order for the courier.
func (s *Service) Accept(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.dispatch.Accept(ctx, orderID, courierID)
}

// Reject declines the offer so the next candidate is asked right away.
func (s *Service) Reject(courierID, orderID uuid.UUID) {
	s.dispatch.Reject(orderID, courierID)
}

// CurrentOrder returns the order the courier is working on, or nil.
func (s *Service) CurrentOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.orders.ActiveForCourier(ctx, id)
}

// Stats returns the courier dashboard summary.
func (s *Service) Stats(ctx context.Context, id uuid.UUID) (domain.CourierStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Stats(ctx, id)
}

// Wallet returns the balance and payouts, newest first.
func (s *Service) Wallet(ctx context.Context, id uuid.UUID) (Wallet, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	credits, err := s.repo.Credits(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	return Wallet{Balance: c.WalletBalance, Credits: credits}, nil
}
