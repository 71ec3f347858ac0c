package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/ports/ledgertx"
)

// Config holds placement parameters.
type Config struct {
	RatePerKm        float64
	OperationTimeout time.Duration
}

// Service places and cancels customer orders.
type Service struct {
	store    Store
	dispatch Dispatcher
	pub      Publisher
	cfg      Config
	logger   logx.Logger

	newID   func() uuid.UUID
	newCode func() (string, error)
}

// NewService creates an orders Service.
func NewService(store Store, dispatch Dispatcher, pub Publisher, cfg Config, logger logx.Logger) *Service {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	if cfg.RatePerKm <= 0 {
		cfg.RatePerKm = 10
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		store:    store,
		dispatch: dispatch,
		pub:      pub,
		cfg:      cfg,
		logger:   logger,
		newID:    uuid.New,
		newCode:  domain.NewDeliveryCode,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

func validatePlacement(req domain.PlaceOrder) error {
	if req.HotelID == uuid.Nil {
		return fmt.Errorf("hotel is required: %w", apperr.Invalid)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("order has no items: %w", apperr.Invalid)
	}
	for _, it := range req.Items {
		if it.FoodID == uuid.Nil || it.Quantity <= 0 || it.Price < 0 {
			return fmt.Errorf("bad order item: %w", apperr.Invalid)
		}
	}
	if req.Delivery.Lat < -90 || req.Delivery.Lat > 90 || req.Delivery.Lng < -180 || req.Delivery.Lng > 180 {
		return fmt.Errorf("delivery location out of range: %w", apperr.Invalid)
	}
	return nil
}

// Place creates the order and starts looking for a courier. A customer may hold
// only one order that is neither delivered nor cancelled.
func (s *Service) Place(ctx context.Context, customerID uuid.UUID, req domain.PlaceOrder) (*domain.Order, error) {
	if err := validatePlacement(req); err != nil {
		return nil, err
	}
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}

	txCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var order *domain.Order
	err = s.store.WithTx(txCtx, func(tx ledgertx.Repository) error {
		if err := tx.LockCustomer(txCtx, customerID); err != nil {
			return err
		}
		active, err := tx.HasActiveOrder(txCtx, customerID)
		if err != nil {
			return err
		}
		if active {
			return domain.ErrActiveOrderExists
		}
		hotel, err := tx.GetHotel(txCtx, req.HotelID)
		if err != nil {
			return err
		}

		total, final := req.Totals()
		distance := geo.DistanceKm(hotel.Location, req.Delivery)
		o := &domain.Order{
			ID:                 s.newID(),
			Status:             domain.OrderPending,
			CustomerID:         customerID,
			Hotel:              *hotel,
			DeliveryLocation:   req.Delivery,
			DeliveryDistanceKm: distance,
			CourierEarning:     geo.Earning(distance, s.cfg.RatePerKm),
			TotalAmount:        total,
			FinalAmount:        final,
			CouponCode:         req.Coupon,
			DeliveryCode:       code,
		}
		if err := tx.InsertOrder(txCtx, o, req.Items); err != nil {
			return err
		}
		searching := *o
		if err := searching.Transition(domain.OrderSearchingDriver, uuid.Nil, time.Time{}); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(txCtx, &searching, domain.OrderPending); err != nil {
			return err
		}
		order = &searching
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		logx.String("event", "order_placed"),
		logx.UUID("order_id", order.ID),
		logx.UUID("customer_id", customerID),
		logx.Float64("distance_km", order.DeliveryDistanceKm),
		logx.Float64("final_amount", order.FinalAmount),
	)

	// The order is already searching; a later trigger or the stale sweep
	// takes over when the first cascade cannot start.
	startCtx, cancelStart := s.withTimeout(ctx)
	defer cancelStart()
	if err := s.dispatchOrder(startCtx, order.ID); err != nil {
		s.logger.Warn("dispatch start failed",
			logx.String("event", "dispatch_start_failed"),
			logx.UUID("order_id", order.ID),
			logx.Err(err),
		)
	}
	return order, nil
}

// startSearch moves a pending order to searching_driver and starts the cascade.
// Running out of couriers is not an error for the caller: the order keeps
// searching until a later trigger or the stale sweep.
func (s *Service) startSearch(ctx context.Context, orderID uuid.UUID) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.BeginSearch(opCtx, orderID); err != nil {
		return err
	}
	return s.dispatchOrder(opCtx, orderID)
}

func (s *Service) dispatchOrder(ctx context.Context, orderID uuid.UUID) error {
	err := s.dispatch.Start(ctx, orderID)
	if errors.Is(err, domain.ErrNoAvailableCouriers) {
		s.logger.Info("order waits for couriers",
			logx.String("event", "order_waiting"),
			logx.UUID("order_id", orderID),
		)
		return nil
	}
	return err
}

// Cancel withdraws an order that has not been accepted yet.
func (s *Service) Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.owned(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderSearchingDriver {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, o.Status)
	}
	if err := s.store.CancelSearching(ctx, orderID); err != nil {
		return nil, err
	}
	s.dispatch.Stop(orderID)
	o.Status = domain.OrderCancelled

	s.logger.Info("order cancelled",
		logx.String("event", "order_cancelled"),
		logx.UUID("order_id", orderID),
		logx.UUID("customer_id", customerID),
	)
	if err := s.pub.Publish(ctx, live.Event{
		Topic: live.CustomerTopic(customerID),
		Type:  domain.EventStatus,
		Data:  domain.StatusUpdate{OrderID: orderID, Status: domain.OrderCancelled},
	}); err != nil {
		s.logger.Warn("live publish failed", logx.UUID("order_id", orderID), logx.Err(err))
	}
	return o, nil
}

// Get returns one of the customer's orders.
func (s *Service) Get(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.owned(ctx, customerID, orderID)
}

// Active returns the customer's order in progress, or nil.
func (s *Service) Active(ctx context.Context, customerID uuid.UUID) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.ActiveForCustomer(ctx, customerID)
}

// List returns the customer's orders, newest first.
func (s *Service) List(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.ListByCustomer(ctx, customerID)
}

// owned hides orders of other customers behind ErrOrderNotFound.
func (s *Service) owned(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}
