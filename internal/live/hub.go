package live

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"service-dispatch/internal/logx"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 32

// Hub fans events out to local subscribers by topic. Delivery is best effort:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Subscription]struct{}
	buffer  int
	dropped prometheus.Counter
	logger  logx.Logger
}

// NewHub creates a Hub. dropped may be nil.
func NewHub(buffer int, dropped prometheus.Counter, logger logx.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Hub{
		topics:  make(map[string]map[*Subscription]struct{}),
		buffer:  buffer,
		dropped: dropped,
		logger:  logger,
	}
}

// Subscription is one listener on one topic.
type Subscription struct {
	hub   *Hub
	topic string
	ch    chan []byte
	once  sync.Once
}

// C delivers encoded envelopes. It is closed by Close.
func (s *Subscription) C() <-chan []byte { return s.ch }

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.topics[s.topic]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.hub.topics, s.topic)
			}
		}
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

// Subscribe registers a listener on topic.
func (h *Hub) Subscribe(topic string) *Subscription {
	s := &Subscription{hub: h, topic: topic, ch: make(chan []byte, h.buffer)}
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Subscribers returns the number of listeners on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Deliver hands an encoded payload to every local listener of topic.
func (h *Hub) Deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.topics[topic] {
		select {
		case s.ch <- payload:
		default:
			if h.dropped != nil {
				h.dropped.Inc()
			}
			h.logger.Warn("live event dropped",
				logx.String("event", "live_event_dropped"),
				logx.String("topic", topic),
			)
		}
	}
}

// Publish encodes ev and delivers it to local listeners only.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	h.Deliver(ev.Topic, payload)
	return nil
}
