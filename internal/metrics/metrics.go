// Package metrics exposes Prometheus counters for the session subsystem.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LoginsTotal counts login attempts by outcome (success, failure, busy, cancelled)
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipnest",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	LogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clipnest",
		Name:      "logouts_total",
		Help:      "Completed logouts.",
	})

	// GuardDecisionsTotal counts route guard decisions by action (wait, redirect, render)
	GuardDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipnest",
		Name:      "guard_decisions_total",
		Help:      "Route guard decisions by action.",
	}, []string{"action"})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
