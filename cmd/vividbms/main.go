package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/app"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/config"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/logging"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logger *log.Entry
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "vividbms",
	Short:         "Vivid BMS maintenance scheduler",
	Long:          "Generates work orders from recurring building maintenance schedules and serves the scheduling API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, runCmd, triggerCmd, seedAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.LogLevel, cfg.Environment, os.Stderr)
	return nil
}

// connect loads configuration and connects every backend.
func connect(ctx context.Context) (*app.App, error) {
	if err := loadConfig(); err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize app: %w", err)
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(context.Background()); err != nil {
		logger.WithError(err).Error("shutdown cleanup failed")
	}
}
