package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/model"
	"precisioncalc/src/rates"
)

type rateGetter interface {
	GetRate(ctx context.Context, from, to string, forceRefresh bool) (*model.ExchangeRate, error)
}

type currencyLister interface {
	SupportedCurrencies() []model.Currency
}

// RateHandler returns a handler that quotes one currency pair. The pair comes
// from the URL, "?refresh=true" bypasses the cache.
func RateHandler(svc rateGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := chi.URLParam(r, "from")
		to := chi.URLParam(r, "to")
		forceRefresh := r.URL.Query().Get("refresh") == "true"

		rate, err := svc.GetRate(r.Context(), from, to, forceRefresh)
		if err != nil {
			if errors.Is(err, rates.ErrUnknownCurrency) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.WithError(err).WithFields(logger.Fields{
				"from": from,
				"to":   to,
			}).Error("failed to fetch exchange rate")
			http.Error(w, "exchange rate unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rate); err != nil {
			logger.WithError(err).Error("failed to encode rate response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}

// CurrenciesHandler returns a handler that lists the supported currencies.
func CurrenciesHandler(svc currencyLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currencies := svc.SupportedCurrencies()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"currencies": currencies,
			"count":      len(currencies),
		}); err != nil {
			logger.WithError(err).Error("failed to encode currencies response")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
