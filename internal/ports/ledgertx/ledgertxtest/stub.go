// Package ledgertxtest provides a configurable ledgertx.Repository for service tests.
package ledgertxtest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/ports/ledgertx"
)

// Stub implements ledgertx.Repository with optional function fields. A call to
// a method whose field is nil fails with an "unexpected call" error.
type Stub struct {
	LockCustomerFn          func(ctx context.Context, customerID uuid.UUID) error
	HasActiveOrderFn        func(ctx context.Context, customerID uuid.UUID) (bool, error)
	GetHotelFn              func(ctx context.Context, id uuid.UUID) (*domain.Hotel, error)
	InsertOrderFn           func(ctx context.Context, o *domain.Order, items []domain.OrderItem) error
	GetOrderForUpdateFn     func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatusFn     func(ctx context.Context, o *domain.Order, from domain.OrderStatus) error
	IncrementCodeAttemptsFn func(ctx context.Context, id uuid.UUID) (int, error)
	GetCourierFn            func(ctx context.Context, id uuid.UUID) (*domain.Courier, error)
	InsertWalletCreditFn    func(ctx context.Context, c *domain.WalletCredit) error
	CreditCourierFn         func(ctx context.Context, courierID uuid.UUID, amount float64) error
}

var _ ledgertx.Repository = (*Stub)(nil)

func unexpected(method string) error {
	return fmt.Errorf("ledgertxtest: unexpected call to %s", method)
}

func (s *Stub) LockCustomer(ctx context.Context, customerID uuid.UUID) error {
	if s.LockCustomerFn == nil {
		return unexpected("LockCustomer")
	}
	return s.LockCustomerFn(ctx, customerID)
}

func (s *Stub) HasActiveOrder(ctx context.Context, customerID uuid.UUID) (bool, error) {
	if s.HasActiveOrderFn == nil {
		return false, unexpected("HasActiveOrder")
	}
	return s.HasActiveOrderFn(ctx, customerID)
}

func (s *Stub) GetHotel(ctx context.Context, id uuid.UUID) (*domain.Hotel, error) {
	if s.GetHotelFn == nil {
		return nil, unexpected("GetHotel")
	}
	return s.GetHotelFn(ctx, id)
}

func (s *Stub) InsertOrder(ctx context.Context, o *domain.Order, items []domain.OrderItem) error {
	if s.InsertOrderFn == nil {
		return unexpected("InsertOrder")
	}
	return s.InsertOrderFn(ctx, o, items)
}

func (s *Stub) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if s.GetOrderForUpdateFn == nil {
		return nil, unexpected("GetOrderForUpdate")
	}
	return s.GetOrderForUpdateFn(ctx, id)
}

func (s *Stub) UpdateOrderStatus(ctx context.Context, o *domain.Order, from domain.OrderStatus) error {
	if s.UpdateOrderStatusFn == nil {
		return unexpected("UpdateOrderStatus")
	}
	return s.UpdateOrderStatusFn(ctx, o, from)
}

func (s *Stub) IncrementCodeAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	if s.IncrementCodeAttemptsFn == nil {
		return 0, unexpected("IncrementCodeAttempts")
	}
	return s.IncrementCodeAttemptsFn(ctx, id)
}

func (s *Stub) GetCourier(ctx context.Context, id uuid.UUID) (*domain.Courier, error) {
	if s.GetCourierFn == nil {
		return nil, unexpected("GetCourier")
	}
	return s.GetCourierFn(ctx, id)
}

func (s *Stub) InsertWalletCredit(ctx context.Context, c *domain.WalletCredit) error {
	if s.InsertWalletCreditFn == nil {
		return unexpected("InsertWalletCredit")
	}
	return s.InsertWalletCreditFn(ctx, c)
}

func (s *Stub) CreditCourier(ctx context.Context, courierID uuid.UUID, amount float64) error {
	if s.CreditCourierFn == nil {
		return unexpected("CreditCourier")
	}
	return s.CreditCourierFn(ctx, courierID, amount)
}

// Runner runs every WithTx callback against Tx. Commit reports whether the
// last callback returned nil.
type Runner struct {
	Tx     ledgertx.Repository
	Calls  int
	Commit bool
}

// WithTx implements ledgertx.Runner.
func (r *Runner) WithTx(_ context.Context, fn func(tx ledgertx.Repository) error) error {
	r.Calls++
	err := fn(r.Tx)
	r.Commit = err == nil
	return err
}
