// Command saldo is the terminal client for the saldo API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"saldo/internal/apiclient"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	// keep stdout for command output
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentCLI, Output: os.Stderr})
	log.SetDefault(logger)

	if err := cfg.ValidateClient(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	client, err := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{Remote: client, Out: os.Stdout, In: os.Stdin}
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "saldo:", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
