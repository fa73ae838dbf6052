package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ExchangeRatesBaseURL string `envconfig:"EXCHANGE_RATES_BASE_URL" default:"https://api.exchangerate-api.com/v4"`
	CoinGeckoBaseURL     string `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`

	// API keys are stored sealed; security.DecryptString them before use.
	ExchangeRatesAPIKey string `envconfig:"EXCHANGE_RATES_API_KEY" default:""`
	CoinGeckoAPIKey     string `envconfig:"COINGECKO_API_KEY" default:""`

	RequestTimeoutSeconds int `envconfig:"PROVIDER_TIMEOUT_SECONDS" default:"15"`
}

// RequestTimeout is the per-request HTTP timeout. Non-positive values fall
// back to the default.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
