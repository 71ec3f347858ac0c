package ledgertx

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

// Repository is the order ledger as seen inside one transaction.
type Repository interface {
	LockCustomer(ctx context.Context, customerID uuid.UUID) error
	HasActiveOrder(ctx context.Context, customerID uuid.UUID) (bool, error)
	GetHotel(ctx context.Context, id uuid.UUID) (*domain.Hotel, error)
	InsertOrder(ctx context.Context, o *domain.Order, items []domain.OrderItem) error

	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, o *domain.Order, from domain.OrderStatus) error
	IncrementCodeAttempts(ctx context.Context, id uuid.UUID) (int, error)

	GetCourier(ctx context.Context, id uuid.UUID) (*domain.Courier, error)
	InsertWalletCredit(ctx context.Context, c *domain.WalletCredit) error
	CreditCourier(ctx context.Context, courierID uuid.UUID, amount float64) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
