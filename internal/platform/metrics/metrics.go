package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	MembersRegistered prometheus.Counter
	ConsentsGranted   prometheus.Counter
	ConsentsWithdrawn prometheus.Counter
	DataExports       prometheus.Counter
	Anonymizations    prometheus.Counter
	HardDeletes       prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		MembersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "membergate_members_registered_total",
			Help: "Total number of members registered",
		}),
		ConsentsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "membergate_consents_granted_total",
			Help: "Total number of consent records granted",
		}),
		ConsentsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "membergate_consents_withdrawn_total",
			Help: "Total number of consent records withdrawn",
		}),
		DataExports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "membergate_data_exports_total",
			Help: "Total number of personal data exports served",
		}),
		Anonymizations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "membergate_anonymizations_total",
			Help: "Total number of member records anonymized",
		}),
		HardDeletes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "membergate_hard_deletes_total",
			Help: "Total number of member records permanently deleted",
		}),
	}
}
