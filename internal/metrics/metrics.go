// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AIRequests counts generative calls by operation and outcome.
	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homechef_ai_requests_total",
		Help: "Generative text requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	// ModelFallbacks counts switches to a fallback model.
	ModelFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homechef_ai_model_fallbacks_total",
		Help: "Times the configured model was replaced by a fallback model.",
	}, []string{"model"})

	// ParseStages counts which step of the JSON repair ladder succeeded.
	ParseStages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homechef_ai_parse_stage_total",
		Help: "Structured responses by the repair stage that recovered them.",
	}, []string{"stage"})

	// HTTPRequests counts API requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homechef_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "status"})
)

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
