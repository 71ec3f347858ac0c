package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/service/courier"
)

type stubOrderUsecase struct {
	placeFn  func(ctx context.Context, customerID uuid.UUID, req domain.PlaceOrder) (*domain.Order, error)
	cancelFn func(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error)
	getFn    func(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error)
	activeFn func(ctx context.Context, customerID uuid.UUID) (*domain.Order, error)
	listFn   func(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)
}

func (s *stubOrderUsecase) Place(ctx context.Context, customerID uuid.UUID, req domain.PlaceOrder) (*domain.Order, error) {
	if s.placeFn == nil {
		panic("Place not expected in this test")
	}
	return s.placeFn(ctx, customerID, req)
}

func (s *stubOrderUsecase) Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error) {
	if s.cancelFn == nil {
		panic("Cancel not expected in this test")
	}
	return s.cancelFn(ctx, customerID, orderID)
}

func (s *stubOrderUsecase) Get(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error) {
	if s.getFn == nil {
		panic("Get not expected in this test")
	}
	return s.getFn(ctx, customerID, orderID)
}

func (s *stubOrderUsecase) Active(ctx context.Context, customerID uuid.UUID) (*domain.Order, error) {
	if s.activeFn == nil {
		panic("Active not expected in this test")
	}
	return s.activeFn(ctx, customerID)
}

func (s *stubOrderUsecase) List(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	if s.listFn == nil {
		panic("List not expected in this test")
	}
	return s.listFn(ctx, customerID)
}

type stubCourierUsecase struct {
	goOnlineFn func(ctx context.Context, id uuid.UUID, p geo.Point) error
	goOffline  error
	locationFn func(ctx context.Context, id uuid.UUID, p geo.Point) error
	acceptFn   func(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	rejected   []uuid.UUID
	current    *domain.Order
	stats      domain.CourierStats
	wallet     courier.Wallet
	err        error
}

func (s *stubCourierUsecase) GoOnline(ctx context.Context, id uuid.UUID, p geo.Point) error {
	return s.goOnlineFn(ctx, id, p)
}

func (s *stubCourierUsecase) GoOffline(context.Context, uuid.UUID) error { return s.goOffline }

func (s *stubCourierUsecase) ReportLocation(ctx context.Context, id uuid.UUID, p geo.Point) error {
	return s.locationFn(ctx, id, p)
}

func (s *stubCourierUsecase) Accept(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error) {
	return s.acceptFn(ctx, courierID, orderID)
}

func (s *stubCourierUsecase) Reject(_, orderID uuid.UUID) { s.rejected = append(s.rejected, orderID) }

func (s *stubCourierUsecase) CurrentOrder(context.Context, uuid.UUID) (*domain.Order, error) {
	return s.current, s.err
}

func (s *stubCourierUsecase) Stats(context.Context, uuid.UUID) (domain.CourierStats, error) {
	return s.stats, s.err
}

func (s *stubCourierUsecase) Wallet(context.Context, uuid.UUID) (courier.Wallet, error) {
	return s.wallet, s.err
}

type stubDeliveryUsecase struct {
	pickedUpFn func(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	onTheWayFn func(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	completeFn func(ctx context.Context, courierID, orderID uuid.UUID, code string) (*domain.Order, error)
}

func (s *stubDeliveryUsecase) MarkPickedUp(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error) {
	return s.pickedUpFn(ctx, courierID, orderID)
}

func (s *stubDeliveryUsecase) MarkOnTheWay(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error) {
	return s.onTheWayFn(ctx, courierID, orderID)
}

func (s *stubDeliveryUsecase) Complete(ctx context.Context, courierID, orderID uuid.UUID, code string) (*domain.Order, error) {
	return s.completeFn(ctx, courierID, orderID, code)
}

// newRequest builds a request as the router would hand it over: identity in
// the context and the {id} route parameter resolved.
func newRequest(method, target, body string, id *auth.Identity, orderID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := req.Context()
	if id != nil {
		ctx = auth.WithIdentity(ctx, *id)
	}
	if orderID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func customer() *auth.Identity {
	return &auth.Identity{ID: uuid.New(), Role: auth.RoleCustomer}
}

func driver() *auth.Identity {
	return &auth.Identity{ID: uuid.New(), Role: auth.RoleCourier}
}
