package connectors

import (
	"context"
	"fmt"
	"time"

	"precisioncalc/src/model"

	"github.com/shopspring/decimal"
)

// defaultUSDTable lists USD per one unit of each currency. The static
// connector is the last provider in the chain, so the figures only need to be
// plausible, not live.
var defaultUSDTable = map[string]string{
	"USD": "1",
	"EUR": "1.0850",
	"GBP": "1.2700",
	"JPY": "0.0067",
	"CHF": "1.1300",
	"CAD": "0.7400",
	"AUD": "0.6600",
	"NZD": "0.6100",
	"SEK": "0.0950",
	"NOK": "0.0940",
	"CNY": "0.1400",
	"INR": "0.0120",
	"BRL": "0.1800",
	"MXN": "0.0540",
	"BTC": "45000",
	"ETH": "2500",
	"USDT": "1.0000",
	"USDC": "1.0000",
	"BNB": "310",
	"XRP": "0.52",
	"ADA": "0.48",
	"SOL": "98",
	"DOT": "7.2",
	"DOGE": "0.082",
	"LTC": "72",
	"MATIC": "0.85",
}

// StaticConnector serves rates from an in-process table, crossing every pair
// through USD. It never fails on network and is the terminal fallback.
type StaticConnector struct {
	usdValue map[string]decimal.Decimal
	metrics  *providerMetrics
}

// NewStaticConnector builds a connector from a USD-per-unit table. A nil
// table uses the built-in defaults.
func NewStaticConnector(table map[string]string) (*StaticConnector, error) {
	if table == nil {
		table = defaultUSDTable
	}

	usdValue := make(map[string]decimal.Decimal, len(table))
	for code, raw := range table {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("static rate %s=%q: %w", code, raw, err)
		}
		if v.Sign() <= 0 {
			return nil, fmt.Errorf("static rate %s=%q must be positive", code, raw)
		}
		usdValue[code] = v
	}

	return &StaticConnector{
		usdValue: usdValue,
		metrics:  newProviderMetrics("static"),
	}, nil
}

func MustNewStaticConnector() *StaticConnector {
	c, err := NewStaticConnector(nil)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *StaticConnector) Name() string { return "static" }

func (c *StaticConnector) Stats() ProviderStats { return c.metrics.snapshot() }

func (c *StaticConnector) FetchRate(ctx context.Context, from, to model.Currency) (*model.ExchangeRate, error) {
	if from.Code == to.Code {
		return sameCurrencyRate(c.Name(), from.Code), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	fromUSD, ok := c.usdValue[from.Code]
	if !ok {
		c.metrics.recordFailure(time.Since(start))
		return nil, fmt.Errorf("%s not in static table: %w", from.Code, ErrPairUnsupported)
	}
	toUSD, ok := c.usdValue[to.Code]
	if !ok {
		c.metrics.recordFailure(time.Since(start))
		return nil, fmt.Errorf("%s not in static table: %w", to.Code, ErrPairUnsupported)
	}

	rate := fromUSD.DivRound(toUSD, 30)

	derived := ""
	switch {
	case to.Code == "USD":
	case from.Code == "USD":
		derived = "inverse"
	default:
		derived = "cross"
	}

	elapsed := time.Since(start)
	c.metrics.recordSuccess(elapsed)

	return &model.ExchangeRate{
		From: from.Code,
		To:   to.Code,
		Rate: rate,
		Metadata: model.RateMetadata{
			Source:         c.Name(),
			Timestamp:      time.Now().UTC(),
			ResponseTimeMs: float64(elapsed.Milliseconds()),
			Derived:        derived,
		},
	}, nil
}
