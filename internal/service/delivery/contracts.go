//go:generate mockgen -source=contracts.go -destination=delivery_mocks_test.go -package=delivery_test

package delivery

import (
	"context"

	"service-dispatch/internal/live"
	"service-dispatch/internal/ports/ledgertx"
)

type orderLedger interface {
	WithTx(ctx context.Context, fn func(tx ledgertx.Repository) error) error
}

// Publisher delivers live events.
type Publisher interface {
	Publish(ctx context.Context, ev live.Event) error
}
