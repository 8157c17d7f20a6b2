package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/1001pro/xrp-trading-bot/cmd/engine"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "XRP Trading Bot CMD"
	app.Usage = "The XRP trading bot command line interface"

	app.Commands = []cli.Command{
		engineCMD,
		scanCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	engineCMD = cli.Command{
		Name:        "engine",
		Usage:       "run the limit order engine",
		Action:      engineAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the periodic limit order scan loop`,
	}
	scanCMD = cli.Command{
		Name:        "scan",
		Usage:       "run a single scan cycle",
		Action:      scanAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run one scan cycle over all pending orders and exit`,
	}
)

func engineAction(_ *cli.Context) error {

	logrus.Info("Starting engine CMD")
	logrus.WithField("cmd", "engine")

	e := &engine.Engine{}
	err := e.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func scanAction(_ *cli.Context) error {

	logrus.Info("Starting scan CMD")
	logrus.WithField("cmd", "scan")

	e := &engine.Engine{}
	err := e.RunOnce()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
