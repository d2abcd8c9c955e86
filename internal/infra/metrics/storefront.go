package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		cacheRequestsTotal,
		cartMutationsTotal,
		checkoutAttemptsTotal,
		checkoutRevenueTotal,
		deliveryOutcomesTotal,
		replacementsTotal,
		ordersPendingOverSLA,
		eventsPublishedTotal,
		supportNotificationsTotal,
	)
}

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Tracks cache hits and misses for various caches.",
		},
		[]string{"cache", "result"}, // e.g., cache="product", result="hit"
	)

	cartMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations by operation.",
		},
		[]string{"op"}, // add, remove, update, clear
	)

	checkoutAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout submissions by result.",
		},
		[]string{"result"}, // success, empty_cart, missing_recipient, insufficient_balance, in_progress, failed
	)

	checkoutRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_revenue_total",
			Help: "The total value of placed orders in minor units, labeled by payment method.",
		},
		[]string{"method"},
	)

	deliveryOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_outcomes_total",
			Help: "Resolved order lines by outcome kind.",
		},
		[]string{"kind"},
	)

	replacementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_replacements_total",
			Help: "Replacement entries appended by support.",
		},
	)

	ordersPendingOverSLA = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orders_pending_over_sla",
			Help: "Orders still processing past the fulfillment window at the last watchdog run.",
		},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events by sink and result.",
		},
		[]string{"sink", "result"},
	)

	supportNotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_notifications_total",
			Help: "Support alerts by result.",
		},
		[]string{"result"}, // sent, failed, dropped
	)
)

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncCartMutation(op string) {
	cartMutationsTotal.WithLabelValues(norm(op)).Inc()
}

func IncCheckoutAttempt(result string) {
	checkoutAttemptsTotal.WithLabelValues(norm(result)).Inc()
}

func AddCheckoutRevenue(method string, amount int64) {
	checkoutRevenueTotal.WithLabelValues(norm(method)).Add(float64(amount))
}

func IncDeliveryOutcome(kind string) {
	deliveryOutcomesTotal.WithLabelValues(norm(kind)).Inc()
}

func IncReplacement() {
	replacementsTotal.Inc()
}

func SetOrdersPendingOverSLA(n int) {
	ordersPendingOverSLA.Set(float64(n))
}

func IncEventPublished(sink, result string) {
	eventsPublishedTotal.WithLabelValues(norm(sink), norm(result)).Inc()
}

func IncSupportNotification(result string) {
	supportNotificationsTotal.WithLabelValues(norm(result)).Inc()
}
