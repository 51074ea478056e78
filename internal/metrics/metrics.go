package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActivationDuration tracks the latency of code activation attempts.
	ActivationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voucher_activation_duration_seconds",
			Help:    "Duration of voucher activation requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"result"}, // success or the failure reason code
	)

	// VouchersGenerated counts vouchers created by batch generation.
	VouchersGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vouchers_generated_total",
			Help: "Total number of voucher codes generated",
		},
	)

	// CodeCollisions counts generator redraws caused by duplicate codes.
	CodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voucher_code_collisions_total",
			Help: "Total number of code collisions during generation",
		},
	)

	// WinnersConfirmed counts successful winner confirmations.
	WinnersConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voucher_winners_confirmed_total",
			Help: "Total number of confirmed winners",
		},
	)
)

// RecordActivationDuration records the latency of one activation attempt
// labelled with its outcome.
func RecordActivationDuration(result string, seconds float64) {
	ActivationDuration.WithLabelValues(result).Observe(seconds)
}
