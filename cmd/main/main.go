package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coin-dashboard/src/config"
	"coin-dashboard/src/logger"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *configPath)
	stop()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

// run wires the dashboard and blocks until ctx ends. Every resource opened
// here is released before it returns, on failure too.
func run(ctx context.Context, configPath string) error {

	// 2. Load config
	conf, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	// 4. Setup Components
	prefs, err := setupPreferences(ctx, conf.MConfig, appLogger)
	if err != nil {
		return err
	}
	defer prefs.Close()

	networkManager := setupNetwork(conf.MConfig)
	client, queryCache, err := setupMarketData(ctx, conf.MConfig, appLogger, networkManager)
	if err != nil {
		return err
	}
	defer queryCache.Close()

	dataStore := setupStore(conf.MConfig, client)
	themeManager := setupTheme(ctx, conf.MConfig, prefs, appLogger)

	// 5. Start Servers
	servers := startServers(ctx, conf.MConfig, dataStore, themeManager, networkManager.Breaker, appLogger)

	appLogger.Info("Dashboard ready on http://%s:%d", conf.Host, conf.Port)
	<-ctx.Done()

	// 6. Shutdown
	appLogger.Info("Shutting down...")
	servers.stop()
	appLogger.Info("Shutdown complete.")
	return nil
}
