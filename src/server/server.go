package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/handler"
	"precisioncalc/src/service"
)

// Dependencies is everything the router needs wired in. History is optional;
// it stays off when the audit store is disabled.
type Dependencies struct {
	Service *service.CalculationService
	Hub     *handler.Hub
	History http.HandlerFunc
}

// NewRouter builds the API surface.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/calculate", handler.CalculateHandler(deps.Service))
		r.Get("/rates/{from}/{to}", handler.RateHandler(deps.Service))
		r.Get("/currencies", handler.CurrenciesHandler(deps.Service))
		r.Get("/healing/status", handler.HealingStatusHandler(deps.Service.Healing()))
		r.Get("/metrics", handler.MetricsHandler(deps.Service))

		if deps.History != nil {
			r.Get("/history", deps.History)
		}
	})

	if deps.Hub != nil {
		r.Get("/ws", deps.Hub.Handler())
	}

	return r
}

// StartServer serves the handler until SIGINT or SIGTERM, then shuts down
// gracefully.
func StartServer(port string, h http.Handler) {
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
