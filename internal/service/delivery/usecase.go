package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/ports/ledgertx"
)

// Config holds completion limits.
type Config struct {
	MaxCodeAttempts  int
	OperationTimeout time.Duration
}

// Service drives an accepted order through pickup, transit and completion.
type Service struct {
	repo   orderLedger
	pub    Publisher
	cfg    Config
	logger logx.Logger
	now    func() time.Time
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// NewDeliveryService - creates a new delivery Service.
func NewDeliveryService(repo orderLedger, pub Publisher, cfg Config, logger logx.Logger) *Service {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = 5
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		repo:   repo,
		pub:    pub,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// MarkPickedUp records that the bound courier collected the order at the hotel.
func (s *Service) MarkPickedUp(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error) {
	return s.advance(ctx, courierID, orderID, domain.OrderPickedUp)
}

// MarkOnTheWay records that the bound courier left for the customer.
func (s *Service) MarkOnTheWay(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error) {
	return s.advance(ctx, courierID, orderID, domain.OrderOnTheWay)
}

func (s *Service) advance(ctx context.Context, courierID, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var order *domain.Order
	err := s.repo.WithTx(ctx, func(tx ledgertx.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.BoundTo(courierID) {
			return domain.ErrNotAuthorized
		}
		from := o.Status
		if err := o.Transition(to, courierID, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, o, from); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		logx.String("event", "order_"+string(to)),
		logx.UUID("order_id", orderID),
		logx.UUID("courier_id", courierID),
	)
	s.publish(ctx, live.Event{
		Topic: live.CustomerTopic(order.CustomerID),
		Type:  domain.EventStatus,
		Data:  domain.StatusUpdate{OrderID: order.ID, Status: order.Status},
	})
	return order, nil
}

// Complete delivers the order if code matches the one given to the customer.
// A wrong code is counted; after MaxCodeAttempts failures the order can no
// longer be completed with a code.
func (s *Service) Complete(ctx context.Context, courierID, orderID uuid.UUID, code string) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		order   *domain.Order
		codeErr error
		tries   int
	)
	err := s.repo.WithTx(ctx, func(tx ledgertx.Repository) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.BoundTo(courierID) {
			return domain.ErrNotAuthorized
		}
		if o.Status != domain.OrderOnTheWay {
			return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, o.Status)
		}
		if o.CodeAttempts >= s.cfg.MaxCodeAttempts {
			return domain.ErrCodeAttemptsExceeded
		}

		if code != o.DeliveryCode {
			tries, err = tx.IncrementCodeAttempts(ctx, orderID)
			if err != nil {
				return err
			}
			codeErr = domain.ErrInvalidCode
			return nil
		}

		if err := o.Transition(domain.OrderDelivered, courierID, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, o, domain.OrderOnTheWay); err != nil {
			return err
		}
		if err := tx.InsertWalletCredit(ctx, &domain.WalletCredit{
			CourierID: courierID,
			OrderID:   orderID,
			Amount:    o.CourierEarning,
		}); err != nil {
			return err
		}
		if err := tx.CreditCourier(ctx, courierID, o.CourierEarning); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCodeAttemptsExceeded) {
			s.logger.Warn("completion locked",
				logx.String("event", "code_attempts_exceeded"),
				logx.UUID("order_id", orderID),
				logx.UUID("courier_id", courierID),
			)
		}
		return nil, err
	}
	if codeErr != nil {
		s.logger.Warn("invalid delivery code",
			logx.String("event", "invalid_code"),
			logx.UUID("order_id", orderID),
			logx.UUID("courier_id", courierID),
			logx.Int("attempts", tries),
			logx.Int("max_attempts", s.cfg.MaxCodeAttempts),
		)
		return nil, codeErr
	}

	s.logger.Info("order delivered",
		logx.String("event", "order_delivered"),
		logx.UUID("order_id", orderID),
		logx.UUID("courier_id", courierID),
		logx.Float64("earning", order.CourierEarning),
	)
	s.publish(ctx, live.Event{
		Topic: live.CustomerTopic(order.CustomerID),
		Type:  domain.EventCompleted,
		Data:  domain.Completion{OrderID: order.ID, Status: order.Status},
	})
	return order, nil
}

func (s *Service) publish(ctx context.Context, ev live.Event) {
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.Warn("live publish failed", logx.String("topic", ev.Topic), logx.Err(err))
	}
}
