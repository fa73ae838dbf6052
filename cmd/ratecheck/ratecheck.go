package ratecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/connectors"
	"precisioncalc/src/model"
)

// RateCheck quotes one pair from every configured provider in turn so the
// sources can be compared side by side.
type RateCheck struct {
	Log *logger.Entry
}

type quote struct {
	Provider string              `json:"provider"`
	Rate     *model.ExchangeRate `json:"rate,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func unknownCurrencyErr(code string, currencies *model.CurrencySet) error {
	return fmt.Errorf("unknown currency %q (fiat: %s; crypto: %s)",
		code,
		strings.Join(currencies.Fiat(), ", "),
		strings.Join(currencies.Crypto(), ", "))
}

func (r *RateCheck) Start(from, to string) error {
	currencies := model.MustSeedCurrencySet()

	fromCur, ok := currencies.Get(from)
	if !ok {
		return unknownCurrencyErr(from, currencies)
	}
	toCur, ok := currencies.Get(to)
	if !ok {
		return unknownCurrencyErr(to, currencies)
	}

	quotes := make([]quote, 0, 4)
	for _, provider := range connectors.DefaultProviders() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		rate, err := provider.FetchRate(ctx, fromCur, toCur)
		cancel()

		q := quote{Provider: provider.Name()}
		if err != nil {
			r.Log.WithError(err).WithField("provider", provider.Name()).Warn("Provider could not quote the pair")
			q.Error = err.Error()
		} else {
			q.Rate = rate
		}
		quotes = append(quotes, q)
	}

	out, err := json.MarshalIndent(map[string]any{
		"pair":   strings.ToUpper(from) + "/" + strings.ToUpper(to),
		"quotes": quotes,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return nil
}
