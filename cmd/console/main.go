package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/tradeconsole/internal/console/cli"
	"github.com/dmitrijs2005/tradeconsole/internal/console/config"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
)

func main() {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
