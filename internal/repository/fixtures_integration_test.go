//go:build integration

package repository_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/ports/ledgertx"
	"service-dispatch/internal/repository"
)

type fixtures struct {
	suite.Suite
	pool *pgxpool.Pool
}

func (s *fixtures) SetupSuite() {
	s.pool = tcPool
}

func (s *fixtures) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `
		TRUNCATE courier_wallet_credits, order_items, orders, couriers, hotels, customers RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *fixtures) customer(name string) uuid.UUID {
	id := uuid.New()
	_, err := s.pool.Exec(context.Background(), `INSERT INTO customers (id, name) VALUES ($1, $2)`, id, name)
	s.Require().NoError(err)
	return id
}

func (s *fixtures) hotel(name string, p geo.Point) domain.Hotel {
	h := domain.Hotel{ID: uuid.New(), Name: name, Location: p}
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO hotels (id, name, lat, lng) VALUES ($1, $2, $3, $4)`, h.ID, h.Name, p.Lat, p.Lng)
	s.Require().NoError(err)
	return h
}

func (s *fixtures) courier(name string, p *geo.Point) uuid.UUID {
	id := uuid.New()
	var lat, lng *float64
	if p != nil {
		lat, lng = &p.Lat, &p.Lng
	}
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO couriers (id, name, is_online, is_available, lat, lng)
		VALUES ($1, $2, $3, true, $4, $5)`, id, name, p != nil, lat, lng)
	s.Require().NoError(err)
	return id
}

// order inserts a pending order through the transactional ledger.
func (s *fixtures) order(customerID uuid.UUID, h domain.Hotel) *domain.Order {
	repo := repository.NewOrderRepo(s.pool)
	o := &domain.Order{
		ID:                 uuid.New(),
		Status:             domain.OrderPending,
		CustomerID:         customerID,
		Hotel:              h,
		DeliveryLocation:   geo.Point{Lat: h.Location.Lat + 0.01, Lng: h.Location.Lng},
		DeliveryDistanceKm: 1.1,
		CourierEarning:     11,
		TotalAmount:        300,
		FinalAmount:        300,
		DeliveryCode:       "4321",
	}
	items := []domain.OrderItem{{FoodID: uuid.New(), Quantity: 2, Price: 150}}
	err := repo.WithTx(context.Background(), func(tx ledgertx.Repository) error {
		return tx.InsertOrder(context.Background(), o, items)
	})
	s.Require().NoError(err)
	return o
}

func (s *fixtures) searching(customerID uuid.UUID, h domain.Hotel) *domain.Order {
	o := s.order(customerID, h)
	s.Require().NoError(repository.NewOrderRepo(s.pool).BeginSearch(context.Background(), o.ID))
	return o
}
