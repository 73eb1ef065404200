package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics holds Prometheus metrics for the service order lifecycle.
type OrderMetrics struct {
	OrdersCreated     prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	NumberRetries     prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of service orders created.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Total number of status transitions, by target status.",
		}, []string{"status"}),
		NumberRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "number_collisions_total",
			Help:      "Total number of order number collisions resolved by regenerating.",
		}),
	}

	reg.MustRegister(m.OrdersCreated, m.StatusTransitions, m.NumberRetries)
	return m
}

// OrderCreated and StatusChanged are safe on a nil receiver.
func (m *OrderMetrics) OrderCreated(n int) {
	if m == nil {
		return
	}
	m.OrdersCreated.Add(float64(n))
}

func (m *OrderMetrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}

func (m *OrderMetrics) NumberCollision() {
	if m == nil {
		return
	}
	m.NumberRetries.Inc()
}
