package metrics

import "github.com/prometheus/client_golang/prometheus"

// Offer outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
	OutcomeSkipped  = "skipped"
)

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// Dispatch groups the cascade counters.
type Dispatch struct {
	Sessions       prometheus.Gauge
	OffersSent     prometheus.Counter
	OfferOutcomes  *prometheus.CounterVec
	Exhausted      prometheus.Counter
	NoCandidates   prometheus.Counter
	AcceptsLost    prometheus.Counter
	ReaperCanceled prometheus.Counter
}

// NewDispatch creates the dispatch collectors. They are not registered.
func NewDispatch() *Dispatch {
	return &Dispatch{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_sessions_active",
			Help: "Number of orders with a live dispatch cascade",
		}),
		OffersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_offers_sent_total",
			Help: "Total number of offers published to couriers",
		}),
		OfferOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_offer_outcomes_total",
			Help: "Offer results by outcome",
		}, []string{"outcome"}),
		Exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_cascades_exhausted_total",
			Help: "Cascades that ran out of candidates",
		}),
		NoCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_no_candidates_total",
			Help: "Dispatch starts with an empty roster",
		}),
		AcceptsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_accepts_lost_total",
			Help: "Accept attempts that lost the race",
		}),
		ReaperCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reaper_orders_cancelled_total",
			Help: "Orders cancelled by the stale order sweep",
		}),
	}
}

// Collectors returns every collector for registration.
func (d *Dispatch) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		d.Sessions, d.OffersSent, d.OfferOutcomes, d.Exhausted,
		d.NoCandidates, d.AcceptsLost, d.ReaperCanceled,
	}
}

// Outcome counts one offer result; safe on a nil receiver.
func (d *Dispatch) Outcome(outcome string) {
	if d == nil {
		return
	}
	d.OfferOutcomes.WithLabelValues(outcome).Inc()
}

// SessionStarted tracks a new cascade.
func (d *Dispatch) SessionStarted() {
	if d != nil {
		d.Sessions.Inc()
	}
}

// SessionEnded tracks a finished cascade.
func (d *Dispatch) SessionEnded() {
	if d != nil {
		d.Sessions.Dec()
	}
}

// OfferSent counts a published offer.
func (d *Dispatch) OfferSent() {
	if d != nil {
		d.OffersSent.Inc()
	}
}

// CascadeExhausted counts a cascade that ran out of candidates.
func (d *Dispatch) CascadeExhausted() {
	if d != nil {
		d.Exhausted.Inc()
	}
}

// NoCandidate counts a dispatch start with nobody to offer to.
func (d *Dispatch) NoCandidate() {
	if d != nil {
		d.NoCandidates.Inc()
	}
}

// AcceptLost counts an accept that lost the race.
func (d *Dispatch) AcceptLost() {
	if d != nil {
		d.AcceptsLost.Inc()
	}
}

// Reaped counts orders cancelled by a sweep.
func (d *Dispatch) Reaped(n int) {
	if d != nil && n > 0 {
		d.ReaperCanceled.Add(float64(n))
	}
}

// NewLiveDropped returns a counter for events dropped on slow subscribers.
func NewLiveDropped() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "live_events_dropped_total",
		Help: "Live events dropped because a subscriber buffer was full",
	})
}
