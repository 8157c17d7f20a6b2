package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/executors"
	"github.com/1001pro/xrp-trading-bot/src/handler"
	"github.com/1001pro/xrp-trading-bot/src/oracle"
	"github.com/1001pro/xrp-trading-bot/src/orders"
	"github.com/1001pro/xrp-trading-bot/src/repository"
)

// NewRouter wires the operational HTTP surface of the engine.
func NewRouter(
	users *repository.UserRepository,
	store *repository.OrderRepository,
	svc *orders.Service,
	scheduler *executors.Scheduler,
	prices *oracle.Client,
) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("failed to write healthcheck response")
		}
	})

	r.Post("/orders", handler.PlaceOrderHandler(users, svc))
	r.Get("/orders", handler.ListOrdersHandler(users, svc))
	r.Delete("/orders/{id}", handler.CancelOrderHandler(users, svc))

	r.Post("/scan", handler.ScanHandler(scheduler))
	r.Get("/tokens/refresh", handler.TokensRefreshHandler(store, prices))

	return r
}

// StartServer serves the router on the configured port and blocks until
// SIGINT or SIGTERM, then shuts down gracefully.
func StartServer(r chi.Router) {
	addr := ":" + GetConfig().Port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
