package oracle

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Endpoint       string        `envconfig:"DEX_SCREENER_ENDPOINT" default:"https://api.dexscreener.com"`
	RequestTimeout time.Duration `envconfig:"DEX_SCREENER_TIMEOUT" default:"10s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
