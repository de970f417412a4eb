package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmitDuration tracks the latency of lead submissions
	SubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lead_submit_duration_seconds",
			Help: "Duration of lead submission requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"outcome"}, // success or failed
	)

	// CouponsIssued counts freshly minted coupon codes
	CouponsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupons_issued_total",
		Help: "Number of newly issued coupon codes",
	})

	// CouponsReused counts submissions that returned an existing unused code
	CouponsReused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupons_reused_total",
		Help: "Number of submissions answered with an existing unused code",
	})

	// HoneypotHits counts submissions rejected by the hidden form field
	HoneypotHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "honeypot_hits_total",
		Help: "Number of submissions caught by the honeypot field",
	})

	// CouponEmails tracks dispatch outcomes of coupon notification emails
	CouponEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_emails_total",
			Help: "Coupon notification emails by dispatch result",
		},
		[]string{"result"}, // sent, skipped or failed
	)
)

// RecordSubmitDuration records the duration of a lead submission request
func RecordSubmitDuration(outcome string, duration float64) {
	SubmitDuration.WithLabelValues(outcome).Observe(duration)
}
