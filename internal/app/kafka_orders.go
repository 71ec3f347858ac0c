package app

import (
	"context"
	"errors"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/transport/kafka"
)

// makeOrdersKafka adapts the order processor to the consumer. Malformed
// events are marked permanent so the consumer does not retry them.
func makeOrdersKafka(p *orders.Processor) kafka.HandleFunc {
	return func(ctx context.Context, event orders.Event) error {
		err := p.Handle(ctx, event)
		if errors.Is(err, apperr.Invalid) {
			return kafka.Permanent(err)
		}
		return err
	}
}
