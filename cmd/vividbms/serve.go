package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the daily scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	trigger, err := scheduling.NewCronTrigger(a.Runner, cfg.SchedulerCron, cfg.Location(), cfg.SchedulerRunTimeout, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpServer.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	trigger.Start()
	logger.WithFields(log.Fields{
		"cron":     cfg.SchedulerCron,
		"timezone": cfg.SchedulerTimezone,
		"next_run": trigger.Next(time.Now()).Format(time.RFC3339),
	}).Info("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		logger.Info("shutting down gracefully...")
	case runErr = <-serverErr:
		logger.WithError(runErr).Error("http server error")
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	if err := trigger.Stop(timeoutCtx); err != nil {
		logger.WithError(err).Warn("scheduled run still in progress at shutdown")
	}

	logger.Info("Vivid BMS scheduler stopped")
	return runErr
}
