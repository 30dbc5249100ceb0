package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/accountkeeper/internal/server"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, os.Stderr)

	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		os.Exit(1)
	}

}
