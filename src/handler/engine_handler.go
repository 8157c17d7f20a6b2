package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/oracle"
)

type scanRunner interface {
	RunScanCycle(ctx context.Context)
}

type tokenLister interface {
	DistinctTokenAddresses(ctx context.Context) ([]string, error)
}

type batchPriceSource interface {
	GetTokensDetails(ctx context.Context, addresses []string) ([]oracle.TokenDetails, error)
}

// ScanHandler triggers one scan cycle. If a cycle is already in progress
// the trigger is absorbed by the scheduler's guard and the call still
// returns success. The cycle runs on a context detached from the request:
// once started it processes every user and order to completion, and a
// client disconnect cannot abort it.
func ScanHandler(runner scanRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go runner.RunScanCycle(context.WithoutCancel(r.Context()))

		w.WriteHeader(http.StatusAccepted)
		if _, err := w.Write([]byte("scan cycle triggered")); err != nil {
			logger.WithError(err).Error("failed to write scan response")
		}
	}
}

// TokensRefreshHandler returns a price snapshot for every token that
// appears in at least one pending order, fetched in a single batched
// oracle call.
func TokensRefreshHandler(store tokenLister, prices batchPriceSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addresses, err := store.DistinctTokenAddresses(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to collect token addresses")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		details, err := prices.GetTokensDetails(r.Context(), addresses)
		if err != nil {
			logger.WithError(err).Error("failed to refresh token prices")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if details == nil {
			details = []oracle.TokenDetails{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(details); err != nil {
			logger.WithError(err).Error("failed to encode token snapshot")
		}
	}
}
