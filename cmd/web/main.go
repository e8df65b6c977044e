package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/MMucahit/borsa/internal/app"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	application, err := app.NewApplication(*configFile)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
