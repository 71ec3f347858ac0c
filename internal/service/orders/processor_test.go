package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/orders"
)

func TestProcessor_Handle_Pending(t *testing.T) {
	t.Parallel()
	d := newDeps(t)
	p := orders.NewProcessor(d.svc)
	id := uuid.New()

	gomock.InOrder(
		d.store.EXPECT().BeginSearch(gomock.Any(), id).Return(nil),
		d.dispatch.EXPECT().Start(gomock.Any(), id).Return(nil),
	)

	err := p.Handle(context.Background(), orders.Event{
		OrderID:   id.String(),
		Status:    "  PENDING  ",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestProcessor_Handle_PendingAlreadySearching(t *testing.T) {
	t.Parallel()
	d := newDeps(t)
	p := orders.NewProcessor(d.svc)
	id := uuid.New()

	d.store.EXPECT().BeginSearch(gomock.Any(), id).Return(domain.ErrInvalidTransition)
	d.dispatch.EXPECT().Start(gomock.Any(), id).Return(nil)

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: id.String(), Status: "pending"}))
}

func TestProcessor_Handle_Searching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		startErr error
		wantErr  error
	}{
		{"started", nil, nil},
		{"no couriers is not an error", domain.ErrNoAvailableCouriers, nil},
		{"order moved on", domain.ErrInvalidTransition, nil},
		{"unknown order", domain.ErrOrderNotFound, nil},
		{"store failure", errors.New("boom"), errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps(t)
			p := orders.NewProcessor(d.svc)
			id := uuid.New()
			d.dispatch.EXPECT().Start(gomock.Any(), id).Return(tt.startErr)

			err := p.Handle(context.Background(), orders.Event{OrderID: id.String(), Status: "searching_driver"})
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.startErr)
		})
	}
}

func TestProcessor_Handle_CancelledStopsSession(t *testing.T) {
	t.Parallel()
	d := newDeps(t)
	p := orders.NewProcessor(d.svc)
	id := uuid.New()
	d.dispatch.EXPECT().Stop(id)

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: id.String(), Status: "cancelled"}))
}

func TestProcessor_Handle_UnknownStatusIgnored(t *testing.T) {
	t.Parallel()
	d := newDeps(t)
	p := orders.NewProcessor(d.svc)

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "whatever", Status: "cooking"}))
}

func TestProcessor_Handle_BadOrderID(t *testing.T) {
	t.Parallel()
	d := newDeps(t)
	p := orders.NewProcessor(d.svc)

	err := p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "pending"})
	require.ErrorIs(t, err, apperr.Invalid)
}
