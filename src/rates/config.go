package rates

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	CacheTTL time.Duration `envconfig:"RATE_CACHE_TTL" default:"5m"`

	// RefreshPeriod drives the background refresh loop; zero disables it.
	// RefreshPairs lists the pairs to keep warm, e.g. "USD-EUR,USD-BTC".
	RefreshPeriod time.Duration `envconfig:"RATE_REFRESH_PERIOD" default:"0"`
	RefreshPairs  string        `envconfig:"RATE_REFRESH_PAIRS" default:""`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
