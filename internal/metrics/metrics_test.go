package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDispatch_NilSafe(t *testing.T) {
	t.Parallel()

	var d *Dispatch
	d.SessionStarted()
	d.SessionEnded()
	d.OfferSent()
	d.Outcome(OutcomeTimeout)
	d.CascadeExhausted()
	d.NoCandidate()
	d.AcceptLost()
	d.Reaped(3)
}

func TestDispatch_CountsAndRegisters(t *testing.T) {
	t.Parallel()

	d := NewDispatch()
	reg := prometheus.NewRegistry()
	for _, c := range d.Collectors() {
		require.NoError(t, reg.Register(c))
	}

	d.OfferSent()
	d.OfferSent()
	d.Outcome(OutcomeRejected)
	d.Reaped(2)
	d.Reaped(0)
	d.SessionStarted()

	require.Equal(t, float64(2), testutil.ToFloat64(d.OffersSent))
	require.Equal(t, float64(1), testutil.ToFloat64(d.OfferOutcomes.WithLabelValues(OutcomeRejected)))
	require.Equal(t, float64(2), testutil.ToFloat64(d.ReaperCanceled))
	require.Equal(t, float64(1), testutil.ToFloat64(d.Sessions))
}
