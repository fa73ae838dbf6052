package handler

import (
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/healing"
	"precisioncalc/src/service"
)

type healingReporter interface {
	Status() healing.Status
}

type metricsReporter interface {
	Metrics() service.Metrics
}

// HealingStatusHandler returns a handler that reports the healing pipeline's
// patterns, statistics, and recent activity.
func HealingStatusHandler(reporter healingReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reporter.Status()); err != nil {
			logger.WithError(err).Error("failed to encode healing status response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}

// MetricsHandler returns a handler that reports service counters.
func MetricsHandler(reporter metricsReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reporter.Metrics()); err != nil {
			logger.WithError(err).Error("failed to encode metrics response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
