package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"fleetd/internal/api"
	"fleetd/internal/config"

	"github.com/lmittmann/tint"
)

// @title        fleetd API
// @version      1.0
// @description  Subwallet fleet funding service
// @BasePath     /
func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := newLogger(config.Get().Verbose)

	if err := config.PromptForPassword(); err != nil {
		log.Error("password prompt failed", "err", err)
		os.Exit(1)
	}

	router, err := api.SetupRouter(log)
	if err != nil {
		log.Error("failed to set up router", "err", err)
		os.Exit(1)
	}

	addr := ":" + config.GetPort()
	log.Info("fleetd listening", "addr", addr, "rpc", config.GetSolanaRPCURL())
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
