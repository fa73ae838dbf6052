package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/connectors"
	"precisioncalc/src/database"
	"precisioncalc/src/handler"
	"precisioncalc/src/healing"
	"precisioncalc/src/model"
	"precisioncalc/src/precision"
	"precisioncalc/src/rates"
	"precisioncalc/src/repository"
	"precisioncalc/src/server"
	"precisioncalc/src/service"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	currencies := model.MustSeedCurrencySet()
	aggregator := rates.NewAggregator(currencies, connectors.DefaultProviders()...)

	if ratesCfg := rates.GetConfig(); ratesCfg.RefreshPeriod > 0 && ratesCfg.RefreshPairs != "" {
		refresher, err := rates.NewRefresher(aggregator, ratesCfg.RefreshPeriod, ratesCfg.RefreshPairs)
		if err != nil {
			logger.WithError(err).Fatal("Invalid rate refresh configuration")
		}
		go func() {
			if err := refresher.StartLoop(context.Background()); err != nil {
				logger.WithError(err).Error("Rate refresh loop exited")
			}
		}()
	}

	registry := healing.NewRegistry()
	if err := registry.Seed(); err != nil {
		logger.WithError(err).Fatal("Failed to seed healing patterns")
	}

	svc := service.NewCalculationService(
		precision.NewEngineFromEnv(),
		aggregator,
		healing.NewOrchestrator(registry),
		currencies,
	)

	hub := handler.NewHub()
	svc.WithEventSink(hub)

	var history http.HandlerFunc
	if database.GetConfig().EnableDB {
		if err := database.InitMainDB(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		svc.WithAuditSink(repository.NewAuditor())
		history = handler.DefaultHistoryHandler()
	}

	router := server.NewRouter(server.Dependencies{
		Service: svc,
		Hub:     hub,
		History: history,
	})
	server.StartServer(server.GetConfig().Port, router)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
