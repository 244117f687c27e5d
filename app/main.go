package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tubetab/tubetab/app/aggregator"
	"github.com/tubetab/tubetab/app/api"
	"github.com/tubetab/tubetab/app/cache"
	"github.com/tubetab/tubetab/app/catalog"
	"github.com/tubetab/tubetab/app/cfg"
	"github.com/tubetab/tubetab/app/fetch"
	"github.com/tubetab/tubetab/app/scheduler"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting TubeTab server", "version", c.Version)

	registry, err := catalog.NewRegistry(c.ChannelsFile)
	if err != nil {
		slog.Error("Failed to load channel catalog", "path", c.ChannelsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Channel catalog loaded", "channels", registry.Size())

	store, err := cache.NewStore(c.CachePath, time.Duration(c.CacheTTL)*time.Second)
	if err != nil {
		slog.Error("Failed to open cache", "path", c.CachePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	httpClient := fetch.NewHTTPClient()
	feedSource := fetch.NewFeedSource(httpClient)
	searchSource := fetch.NewSearchSource(httpClient)
	lookupSource := fetch.NewLookupSource(httpClient)

	if searchSource.Available() {
		slog.Info("YouTube Data API sources enabled")
	} else {
		slog.Info("YouTube Data API sources disabled (YOUTUBE_API_KEY not set)")
	}

	agg := aggregator.New(registry, feedSource, searchSource, store)

	pollScheduler := scheduler.NewScheduler(agg, store, time.Duration(c.PollInterval)*time.Second)
	pollScheduler.Start()
	defer pollScheduler.Stop()

	handler := api.NewHandler(agg, lookupSource, registry, store, c.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
