package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the webhook, gate and meal plan layers report to.
type Recorder interface {
	RecordWebhookEvent(eventType, outcome string)
	RecordGateDecision(decision string)
	RecordMealPlanLatency(duration time.Duration, success bool)
	RecordHTTPStatus(statusCode int)
}

type Collector struct {
	webhookEvents   *prometheus.CounterVec
	gateDecisions   *prometheus.CounterVec
	mealPlanLatency *prometheus.HistogramVec
	httpStatus      *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextmeal_webhook_events_total",
			Help: "Stripe webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextmeal_gate_decisions_total",
			Help: "Access gate decisions.",
		}, []string{"decision"}),
		mealPlanLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nextmeal_mealplan_generation_seconds",
			Help:    "Meal plan generation latency in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextmeal_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.gateDecisions,
		c.mealPlanLatency,
		c.httpStatus,
	)
	return c
}

func (c *Collector) RecordWebhookEvent(eventType, outcome string) {
	c.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (c *Collector) RecordGateDecision(decision string) {
	c.gateDecisions.WithLabelValues(decision).Inc()
}

func (c *Collector) RecordMealPlanLatency(duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	c.mealPlanLatency.WithLabelValues(result).Observe(duration.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler serves the Prometheus exposition for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used where no registry is wired.
type Nop struct{}

func (Nop) RecordWebhookEvent(string, string)         {}
func (Nop) RecordGateDecision(string)                 {}
func (Nop) RecordMealPlanLatency(time.Duration, bool) {}
func (Nop) RecordHTTPStatus(int)                      {}
