package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/chaincode"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/logging"
)

func main() {
	flagLogLevel := ""
	flagLogFormat := ""

	flag.StringVar(&flagLogLevel, "log.level", "info", "log severity (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log.format", "json", "log format (text, json)")

	flag.Parse()

	logging.Init(flagLogLevel, flagLogFormat)

	cc, err := chaincode.NewChaincode()
	if err != nil {
		slog.Error("failed to create emissions chaincode", "err", err)
		os.Exit(1)
	}

	slog.Info("starting emissions chaincode")
	if err := cc.Start(); err != nil {
		slog.Error("failed to start emissions chaincode", "err", err)
		os.Exit(1)
	}
}
