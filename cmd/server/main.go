package main

import (
	"context"
	"log"
	"os"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
