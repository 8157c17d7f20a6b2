package ledger

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	URL            string        `envconfig:"XRPL_WS_URL" default:"wss://xrplcluster.com/"`
	RequestTimeout time.Duration `envconfig:"XRPL_REQUEST_TIMEOUT" default:"30s"`

	// Reserves excluded from the spendable XRP balance.
	BaseReserveXRP  float64 `envconfig:"XRPL_BASE_RESERVE" default:"1"`
	OwnerReserveXRP float64 `envconfig:"XRPL_OWNER_RESERVE" default:"0.2"`

	// OfferLedgerWindow bounds transaction validity: LastLedgerSequence is
	// the current ledger index plus this many close cycles.
	OfferLedgerWindow uint32        `envconfig:"XRPL_OFFER_LEDGER_WINDOW" default:"5"`
	TxPollInterval    time.Duration `envconfig:"XRPL_TX_POLL_INTERVAL" default:"1s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
