package main

import (
	"context"
	"log"
	"os"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/buildinfo"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/cli"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/config"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
)

const logFileName = "client.log"

// newLogger writes structured logs to a file so they do not interleave with
// the interactive prompt. Falls back to stderr when the file cannot be
// opened.
func newLogger() logging.Logger {
	out := os.Stderr
	if f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
		out = f
	}
	return logging.NewSlogText(out)
}

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg, newLogger())

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
