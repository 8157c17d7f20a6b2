package referral

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// AdminWallet receives the flat administrative cut. Empty disables it.
	AdminWallet string `envconfig:"ADMIN_WALLET"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
