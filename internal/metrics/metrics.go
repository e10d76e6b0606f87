package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationsAdmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sarc",
			Name:      "reservations_admitted_total",
			Help:      "Count of booking requests admitted.",
		},
	)

	reservationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sarc",
			Name:      "reservations_rejected_total",
			Help:      "Count of booking requests refused, by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationsAdmitted, reservationsRejected)
	})
}

func IncAdmitted() {
	reservationsAdmitted.Inc()
}

func IncRejected(reason string) {
	reservationsRejected.WithLabelValues(reason).Inc()
}
