package dispatch

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
)

type candidate struct {
	courierID  uuid.UUID
	distanceKm float64
}

type msgKind int

const (
	msgReject msgKind = iota
	msgTimeout
	msgStop
)

type message struct {
	kind      msgKind
	courierID uuid.UUID
	seq       uint64
}

// session owns the cascade state of one order. Only its run goroutine touches
// cursor, current, seq and timer.
type session struct {
	e          *Engine
	orderID    uuid.UUID
	candidates []candidate
	logger     logx.Logger

	cursor  int
	current uuid.UUID
	seq     uint64
	timer   Timer

	inbox chan message
	done  chan struct{}
}

func newSession(e *Engine, orderID uuid.UUID, candidates []candidate) *session {
	return &session{
		e:          e,
		orderID:    orderID,
		candidates: candidates,
		logger:     e.logger.With(logx.UUID("order_id", orderID)),
		cursor:     -1,
		inbox:      make(chan message, 8),
		done:       make(chan struct{}),
	}
}

// post hands m to the session; it is dropped once the session has ended.
func (s *session) post(m message) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

func (s *session) run() {
	defer s.e.finish(s)

	if !s.advance() {
		return
	}
	for m := range s.inbox {
		switch m.kind {
		case msgStop:
			s.stopTimer()
			s.logger.Debug("dispatch stopped", logx.String("event", "dispatch_stopped"))
			return
		case msgReject:
			if s.current == uuid.Nil || m.courierID != s.current {
				continue
			}
			s.stopTimer()
			s.e.metrics.Outcome(metrics.OutcomeRejected)
			s.logger.Info("offer rejected",
				logx.String("event", "offer_rejected"),
				logx.UUID("courier_id", m.courierID),
			)
		case msgTimeout:
			if m.seq != s.seq {
				continue
			}
			s.timer = nil
			s.e.metrics.Outcome(metrics.OutcomeTimeout)
			s.logger.Info("offer timed out",
				logx.String("event", "offer_timeout"),
				logx.UUID("courier_id", s.current),
			)
		}
		if !s.advance() {
			return
		}
	}
}

// advance offers the order to the next eligible candidate. It returns false
// when the cascade is over.
func (s *session) advance() bool {
	s.current = uuid.Nil
	for {
		s.cursor++
		if s.cursor >= len(s.candidates) {
			s.e.metrics.CascadeExhausted()
			s.logger.Warn("cascade exhausted",
				logx.String("event", "cascade_exhausted"),
				logx.Int("candidates", len(s.candidates)),
				logx.Err(domain.ErrCascadeExhausted),
			)
			return false
		}
		c := s.candidates[s.cursor]

		ctx, cancel := s.e.opContext()
		courier, err := s.e.roster.Get(ctx, c.courierID)
		if err != nil || !courier.Dispatchable() {
			cancel()
			if err != nil && !errors.Is(err, domain.ErrCourierNotFound) {
				s.logger.Warn("roster check failed", logx.UUID("courier_id", c.courierID), logx.Err(err))
			}
			s.e.metrics.Outcome(metrics.OutcomeSkipped)
			s.logger.Debug("candidate skipped",
				logx.String("event", "offer_skipped"),
				logx.UUID("courier_id", c.courierID),
			)
			continue
		}

		order, err := s.e.ledger.Get(ctx, s.orderID)
		if err != nil {
			cancel()
			s.logger.Error("dispatch aborted: order read failed", logx.Err(err))
			return false
		}
		if order.Status != domain.OrderSearchingDriver {
			cancel()
			s.logger.Info("dispatch aborted",
				logx.String("event", "dispatch_aborted"),
				logx.String("status", string(order.Status)),
			)
			return false
		}

		s.seq++
		seq := s.seq
		s.current = c.courierID
		s.timer = s.e.clock.AfterFunc(s.e.cfg.ResponseWindow, func() {
			s.post(message{kind: msgTimeout, seq: seq})
		})

		offer := domain.OfferFor(order, c.distanceKm, int(s.e.cfg.ResponseWindow/time.Second))
		s.e.publish(ctx, live.Event{Topic: live.CourierTopic(c.courierID), Type: domain.EventOffer, Data: offer})
		cancel()

		s.e.metrics.OfferSent()
		s.logger.Info("offer sent",
			logx.String("event", "offer_sent"),
			logx.UUID("courier_id", c.courierID),
			logx.Float64("distance_km", c.distanceKm),
			logx.Int("position", s.cursor),
		)
		return true
	}
}

func (s *session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.current = uuid.Nil
}
