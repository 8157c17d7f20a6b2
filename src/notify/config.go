package notify

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BotToken       string        `envconfig:"BOT_TOKEN"`
	APIURL         string        `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	RequestTimeout time.Duration `envconfig:"TELEGRAM_TIMEOUT" default:"10s"`
	TxScanURL      string        `envconfig:"XRP_TX_SCAN_URL" default:"https://xrpscan.com/tx"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
