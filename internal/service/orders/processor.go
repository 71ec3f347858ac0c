package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// Processor turns order-service events into dispatch actions.
type Processor struct {
	svc     *Service
	factory *actionFactory
}

// NewProcessor creates a Processor on top of the orders Service.
func NewProcessor(svc *Service) *Processor {
	p := &Processor{svc: svc}
	p.factory = newActionFactory(p.onPending, p.onSearching, p.onCancelled)
	return p
}

// Handle processes a single orders.Event. Unknown statuses are ignored.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.factory.get(e.Status)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(e.OrderID)
	if err != nil {
		return fmt.Errorf("order id %q: %w", e.OrderID, apperr.Invalid)
	}
	return fn(ctx, id)
}

func (p *Processor) onPending(ctx context.Context, id uuid.UUID) error {
	err := p.svc.startSearch(ctx, id)
	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrOrderNotFound) {
		// already searching or past it; let the searching handler decide
		return p.onSearching(ctx, id)
	}
	return err
}

func (p *Processor) onSearching(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := p.svc.withTimeout(ctx)
	defer cancel()

	err := p.svc.dispatchOrder(ctx, id)
	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrOrderNotFound) {
		p.svc.logger.Info("dispatch trigger ignored",
			logx.UUID("order_id", id),
			logx.Err(err),
		)
		return nil
	}
	return err
}

func (p *Processor) onCancelled(_ context.Context, id uuid.UUID) error {
	p.svc.dispatch.Stop(id)
	return nil
}
