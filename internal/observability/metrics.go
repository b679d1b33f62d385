package observability

import "github.com/prometheus/client_golang/prometheus"

// Enquiry outcomes recorded by RecordEnquiry.
const (
	OutcomeCreated  = "created"  // persisted
	OutcomeRejected = "rejected" // failed validation
	OutcomeFailed   = "failed"   // store error
)

var enquiriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "enquiries_total",
		Help: "Contact form submissions by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(enquiriesTotal)
	// Pre-create series so dashboards see zeroes before the first submission.
	for _, o := range []string{OutcomeCreated, OutcomeRejected, OutcomeFailed} {
		enquiriesTotal.WithLabelValues(o)
	}
}

// RecordEnquiry increments the submission counter for outcome.
func RecordEnquiry(outcome string) {
	enquiriesTotal.WithLabelValues(outcome).Inc()
}
