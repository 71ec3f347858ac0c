package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("dispatch engine closed")

// Config holds cascade timing.
type Config struct {
	ResponseWindow   time.Duration
	OperationTimeout time.Duration
}

// Engine runs one offer cascade per searching order and resolves acceptance.
type Engine struct {
	ledger  Ledger
	roster  Roster
	pub     Publisher
	clock   Clock
	cfg     Config
	logger  logx.Logger
	metrics *metrics.Dispatch

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	closed   bool
	wg       sync.WaitGroup
}

// NewEngine creates an Engine. clock, logger and m may be nil.
func NewEngine(ledger Ledger, roster Roster, pub Publisher, clock Clock, cfg Config, logger logx.Logger, m *metrics.Dispatch) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = logx.Nop()
	}
	if cfg.ResponseWindow <= 0 {
		cfg.ResponseWindow = 15 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	return &Engine{
		ledger:   ledger,
		roster:   roster,
		pub:      pub,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Start ranks the dispatchable couriers by distance to the hotel and begins
// offering the order to them one at a time. A second Start for an order with a
// live cascade does nothing.
func (e *Engine) Start(ctx context.Context, orderID uuid.UUID) error {
	order, err := e.ledger.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderSearchingDriver {
		return fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
	}
	if e.Active(orderID) {
		return nil
	}

	couriers, err := e.roster.ListDispatchable(ctx)
	if err != nil {
		return fmt.Errorf("list dispatchable couriers: %w", err)
	}
	eligible := make([]domain.Courier, 0, len(couriers))
	for _, c := range couriers {
		if c.Dispatchable() {
			eligible = append(eligible, c)
		}
	}
	ranked := geo.RankByDistance(eligible, order.Hotel.Location, func(c domain.Courier) geo.Point {
		return *c.Location
	})
	if len(ranked) == 0 {
		e.metrics.NoCandidate()
		e.logger.Info("no couriers to dispatch",
			logx.String("event", "no_available_couriers"),
			logx.UUID("order_id", orderID),
		)
		return domain.ErrNoAvailableCouriers
	}

	candidates := make([]candidate, 0, len(ranked))
	for _, r := range ranked {
		candidates = append(candidates, candidate{courierID: r.Item.ID, distanceKm: r.DistanceKm})
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if _, ok := e.sessions[orderID]; ok {
		e.mu.Unlock()
		return nil
	}
	s := newSession(e, orderID, candidates)
	e.sessions[orderID] = s
	e.wg.Add(1)
	e.mu.Unlock()

	e.metrics.SessionStarted()
	e.logger.Info("dispatch started",
		logx.String("event", "dispatch_started"),
		logx.UUID("order_id", orderID),
		logx.Int("candidates", len(candidates)),
	)
	go s.run()
	return nil
}

// Accept binds courierID to the order if it is still searching. Exactly one
// concurrent caller wins; the others get ErrAlreadyAssigned.
func (e *Engine) Accept(ctx context.Context, orderID, courierID uuid.UUID) (*domain.Order, error) {
	order, courier, err := e.ledger.AcceptOrder(ctx, orderID, courierID, e.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyAssigned) {
			e.metrics.AcceptLost()
			e.logger.Info("accept lost",
				logx.String("event", "accept_lost"),
				logx.UUID("order_id", orderID),
				logx.UUID("courier_id", courierID),
			)
		}
		return nil, err
	}

	e.Stop(orderID)
	e.metrics.Outcome(metrics.OutcomeAccepted)
	e.logger.Info("order accepted",
		logx.String("event", "order_accepted"),
		logx.UUID("order_id", orderID),
		logx.UUID("courier_id", courierID),
	)

	update := domain.StatusUpdate{
		OrderID: order.ID,
		Status:  order.Status,
		Courier: domain.NewCourierPublic(*courier),
	}
	e.publish(ctx, live.Event{Topic: live.CustomerTopic(order.CustomerID), Type: domain.EventStatus, Data: update})
	return order, nil
}

// Reject ends the pending offer early if courierID is the courier currently offered.
func (e *Engine) Reject(orderID, courierID uuid.UUID) {
	if s := e.session(orderID); s != nil {
		s.post(message{kind: msgReject, courierID: courierID})
	}
}

// Stop ends the cascade of the order, if any, and waits for it to finish.
func (e *Engine) Stop(orderID uuid.UUID) {
	s := e.session(orderID)
	if s == nil {
		return
	}
	s.post(message{kind: msgStop})
	<-s.done
}

// Active reports whether the order has a live cascade.
func (e *Engine) Active(orderID uuid.UUID) bool {
	return e.session(orderID) != nil
}

// Sessions returns the number of live cascades.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Close stops every cascade and waits for them. Start fails afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	running := make([]*session, 0, len(e.sessions))
	for _, s := range e.sessions {
		running = append(running, s)
	}
	e.mu.Unlock()

	for _, s := range running {
		s.post(message{kind: msgStop})
	}
	e.wg.Wait()
}

func (e *Engine) session(orderID uuid.UUID) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[orderID]
}

func (e *Engine) finish(s *session) {
	e.mu.Lock()
	if e.sessions[s.orderID] == s {
		delete(e.sessions, s.orderID)
	}
	e.mu.Unlock()
	close(s.done)
	e.metrics.SessionEnded()
	e.wg.Done()
}

func (e *Engine) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.cfg.OperationTimeout)
}

func (e *Engine) publish(ctx context.Context, ev live.Event) {
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.logger.Warn("live publish failed",
			logx.String("topic", ev.Topic),
			logx.String("type", ev.Type),
			logx.Err(err),
		)
	}
}
