package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/1001pro/xrp-trading-bot/src/controller"
	"github.com/1001pro/xrp-trading-bot/src/database"
	"github.com/1001pro/xrp-trading-bot/src/executors"
	"github.com/1001pro/xrp-trading-bot/src/ledger"
	"github.com/1001pro/xrp-trading-bot/src/notify"
	"github.com/1001pro/xrp-trading-bot/src/oracle"
	"github.com/1001pro/xrp-trading-bot/src/orders"
	"github.com/1001pro/xrp-trading-bot/src/referral"
	"github.com/1001pro/xrp-trading-bot/src/repository"
	"github.com/1001pro/xrp-trading-bot/src/server"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	ledgerClient := ledger.NewClient()
	defer ledgerClient.Close()
	oracleClient := oracle.NewClient()
	telegram := notify.NewTelegram()

	userRepo := repository.NewUserRepository()
	orderRepo := repository.NewOrderRepository()

	distributor := referral.NewDistributor(userRepo, ledgerClient)
	trader := controller.NewTradeController(ledgerClient, distributor, telegram)
	scheduler := executors.NewScheduler(userRepo, orderRepo, ledgerClient, oracleClient, trader, telegram)
	orderService := orders.NewService(orderRepo, ledgerClient, oracleClient)

	router := server.NewRouter(userRepo, orderRepo, orderService, scheduler, oracleClient)
	server.StartServer(router)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
