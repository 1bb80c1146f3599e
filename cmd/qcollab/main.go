package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/quickcollab/internal/buildinfo"
	"github.com/dmitrijs2005/quickcollab/internal/client/cli"
	"github.com/dmitrijs2005/quickcollab/internal/client/config"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(logging.FormatText, os.Stderr, false)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
