package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/dispatch"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/live"
)

// kmPerDegree matches the haversine earth radius used by geo.DistanceKm.
const kmPerDegree = 6371.0 * 3.141592653589793 / 180

var hotelAt = geo.Point{Lat: 55.75, Lng: 37.62}

func north(km float64) *geo.Point {
	return &geo.Point{Lat: hotelAt.Lat + km/kmPerDegree, Lng: hotelAt.Lng}
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) dispatch.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	keep := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.done:
		case !t.at.After(c.now):
			t.done = true
			due = append(due, t.f)
		default:
			keep = append(keep, t)
		}
	}
	c.timers = keep
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// Armed returns the number of pending timers.
func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

type memRoster struct {
	mu       sync.Mutex
	couriers []domain.Courier
}

func (r *memRoster) add(name string, at *geo.Point) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := domain.Courier{ID: uuid.New(), Name: name, Online: true, Available: true, Location: at}
	r.couriers = append(r.couriers, c)
	return c.ID
}

func (r *memRoster) update(id uuid.UUID, fn func(c *domain.Courier)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.couriers {
		if r.couriers[i].ID == id {
			fn(&r.couriers[i])
		}
	}
}

func (r *memRoster) ListDispatchable(context.Context) ([]domain.Courier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Courier
	for _, c := range r.couriers {
		if c.Dispatchable() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRoster) Get(_ context.Context, id uuid.UUID) (*domain.Courier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.couriers {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, domain.ErrCourierNotFound
}

type memLedger struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
	roster *memRoster
}

func newMemLedger(roster *memRoster) *memLedger {
	return &memLedger{orders: make(map[uuid.UUID]*domain.Order), roster: roster}
}

func (l *memLedger) addSearching() *domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := &domain.Order{
		ID:                 uuid.New(),
		Status:             domain.OrderSearchingDriver,
		CustomerID:         uuid.New(),
		CustomerName:       "Ann",
		Hotel:              domain.Hotel{ID: uuid.New(), Name: "Pushkin", Location: hotelAt},
		DeliveryDistanceKm: 3.2,
		CourierEarning:     32,
	}
	l.orders[o.ID] = o
	cp := *o
	return &cp
}

func (l *memLedger) setStatus(id uuid.UUID, st domain.OrderStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[id].Status = st
}

func (l *memLedger) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (l *memLedger) AcceptOrder(ctx context.Context, orderID, courierID uuid.UUID, at time.Time) (*domain.Order, *domain.Courier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return nil, nil, domain.ErrOrderNotFound
	}
	if o.Status != domain.OrderSearchingDriver {
		return nil, nil, domain.ErrAlreadyAssigned
	}
	c, err := l.roster.Get(ctx, courierID)
	if err != nil {
		return nil, nil, err
	}
	if err := o.Transition(domain.OrderAccepted, courierID, at); err != nil {
		return nil, nil, err
	}
	l.roster.update(courierID, func(c *domain.Courier) { c.Available = false })
	c.Available = false
	cp := *o
	return &cp, c, nil
}

type recorder struct {
	mu  sync.Mutex
	all []live.Event
	ch  chan live.Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan live.Event, 64)}
}

func (r *recorder) Publish(_ context.Context, ev live.Event) error {
	r.mu.Lock()
	r.all = append(r.all, ev)
	r.mu.Unlock()
	r.ch <- ev
	return nil
}

func (r *recorder) next(t *testing.T) live.Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return live.Event{}
	}
}

func (r *recorder) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.ch:
		t.Fatalf("unexpected %s event to %s", ev.Type, ev.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func (r *recorder) offersTo(courierID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.all {
		if ev.Type == domain.EventOffer && ev.Topic == live.CourierTopic(courierID) {
			n++
		}
	}
	return n
}
