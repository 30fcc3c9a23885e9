package monitoring

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking state machine transitions",
		},
		[]string{"from", "to"},
	)

	transitionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transition_failures_total",
			Help: "Rejected booking transitions by operation and reason",
		},
		[]string{"operation", "reason"},
	)

	paymentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_operations_total",
			Help: "Payment gateway operations",
		},
		[]string{"operation", "status"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Webhook deliveries by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	keyValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "key_validations_total",
			Help: "Check-in key validations",
		},
		[]string{"result"},
	)

	gatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"operation"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackTransition records a committed state machine transition.
func (m *Monitor) TrackTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

// TrackTransitionFailure records a transition refused before commit.
func (m *Monitor) TrackTransitionFailure(operation, reason string) {
	transitionFailures.WithLabelValues(operation, reason).Inc()
}

// TrackPaymentOperation records an initialize/verify outcome.
func (m *Monitor) TrackPaymentOperation(operation, status string) {
	paymentOperations.WithLabelValues(operation, status).Inc()
}

// TrackWebhookEvent records a webhook delivery outcome.
func (m *Monitor) TrackWebhookEvent(event, outcome string) {
	webhookEvents.WithLabelValues(event, outcome).Inc()
}

// TrackKeyValidation records a check-in attempt result.
func (m *Monitor) TrackKeyValidation(result string) {
	keyValidations.WithLabelValues(result).Inc()
}

// TrackGatewayCall records the latency of one gateway round trip.
func (m *Monitor) TrackGatewayCall(operation string, duration time.Duration) {
	gatewayDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// StartMetricsServer exposes /metrics and /healthz on a dedicated listener.
func StartMetricsServer(port string) {
	e := echo.New()

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		if err := e.Start(":" + port); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
}
