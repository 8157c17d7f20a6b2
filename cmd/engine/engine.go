package engine

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/controller"
	"github.com/1001pro/xrp-trading-bot/src/database"
	"github.com/1001pro/xrp-trading-bot/src/executors"
	"github.com/1001pro/xrp-trading-bot/src/ledger"
	"github.com/1001pro/xrp-trading-bot/src/notify"
	"github.com/1001pro/xrp-trading-bot/src/oracle"
	"github.com/1001pro/xrp-trading-bot/src/referral"
	"github.com/1001pro/xrp-trading-bot/src/repository"
)

// Engine runs the periodic limit order scan over all users.
type Engine struct{}

// Start runs the scan loop until SIGINT or SIGTERM.
func (e *Engine) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	scheduler, cleanup, err := buildScheduler()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := scheduler.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start scan loop")
		return err
	}

	return nil
}

// RunOnce executes a single scan cycle and exits.
func (e *Engine) RunOnce() error {
	scheduler, cleanup, err := buildScheduler()
	if err != nil {
		return err
	}
	defer cleanup()

	scheduler.RunScanCycle(context.Background())
	return nil
}

func buildScheduler() (*executors.Scheduler, func(), error) {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to main database")
		return nil, nil, err
	}

	ledgerClient := ledger.NewClient()
	oracleClient := oracle.NewClient()
	telegram := notify.NewTelegram()

	userRepo := repository.NewUserRepository()
	orderRepo := repository.NewOrderRepository()

	distributor := referral.NewDistributor(userRepo, ledgerClient)
	trader := controller.NewTradeController(ledgerClient, distributor, telegram)
	scheduler := executors.NewScheduler(userRepo, orderRepo, ledgerClient, oracleClient, trader, telegram)

	return scheduler, ledgerClient.Close, nil
}
