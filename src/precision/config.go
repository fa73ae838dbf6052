package precision

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Significant digits kept by every engine result.
	Precision int32 `envconfig:"CALC_PRECISION" default:"60"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
