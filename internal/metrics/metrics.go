package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics holds the order service collectors.
type ShopMetrics struct {
	ordersPlaced    prometheus.Counter
	ordersCancelled prometheus.Counter
	orderFailures   *prometheus.CounterVec
	fetchQueries    *prometheus.HistogramVec
}

func NewShopMetrics() *ShopMetrics {
	return NewShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &ShopMetrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_orders_placed_total",
			Help: "Total number of orders placed",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shop_order_failures_total",
			Help: "Order operations rejected or failed, by operation and reason",
		}, []string{"op", "reason"}),
		fetchQueries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shop_fetch_queries",
			Help:    "SQL statements issued per order fetch, by strategy",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100, 250},
		}, []string{"strategy"}),
	}

	m.ordersPlaced = register(registerer, m.ordersPlaced)
	m.ordersCancelled = register(registerer, m.ordersCancelled)
	m.orderFailures = register(registerer, m.orderFailures)
	m.fetchQueries = register(registerer, m.fetchQueries)

	return m
}

// register reuses an already registered collector so that several
// ShopMetrics can share one registry.
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	if err := registerer.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *ShopMetrics) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *ShopMetrics) RecordOrderCancelled() {
	if m == nil {
		return
	}
	m.ordersCancelled.Inc()
}

func (m *ShopMetrics) RecordFailure(op, reason string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(op, reason).Inc()
}

func (m *ShopMetrics) ObserveFetch(strategy string, queries int) {
	if m == nil {
		return
	}
	m.fetchQueries.WithLabelValues(strategy).Observe(float64(queries))
}
