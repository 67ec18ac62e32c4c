package main

import (
	"context"

	"coin-dashboard/src/analysis"
	"coin-dashboard/src/cache"
	"coin-dashboard/src/data_source/coingecko"
	"coin-dashboard/src/interfaces"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
	"coin-dashboard/src/network"
	"coin-dashboard/src/projector"
	"coin-dashboard/src/storage"
	"coin-dashboard/src/store"
	"coin-dashboard/src/theme"
)

// -----------------------------------------------------------------------------

// setupPreferences opens the preference store selected by config
func setupPreferences(ctx context.Context, config *models.MConfig, appLogger *logger.Logger) (interfaces.IPreferenceStore, error) {
	prefs, err := storage.NewPreferenceStore(config, logger.NewLogger(config, "Storage"))
	if err != nil {
		appLogger.Error("Failed to init db: %v", err)
		return nil, err
	}
	if err := prefs.Initialize(ctx); err != nil {
		appLogger.Error("Failed to migrate db: %v", err)
		return nil, err
	}
	return prefs, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig) *network.AsyncNetworkManager {
	networkLogger := logger.NewLogger(config, "NetworkManager")
	return network.NewAsyncNetworkManager(config, networkLogger)
}

// -----------------------------------------------------------------------------

// setupMarketData builds the cached CoinGecko client
func setupMarketData(ctx context.Context, config *models.MConfig, appLogger *logger.Logger, networkManager interfaces.INetworkManager) (interfaces.IMarketDataClient, *cache.QueryCache, error) {
	queryCache, err := cache.NewFromConfig(ctx, config, logger.NewLogger(config, "QueryCache"))
	if err != nil {
		appLogger.Error("Failed to init cache: %v", err)
		return nil, nil, err
	}
	client := coingecko.NewClient(config, networkManager, queryCache, logger.NewLogger(config, "CoinGecko"))
	appLogger.Info("Market data from %s (%s)", config.MarketData.BaseURL, config.MarketData.VsCurrency)
	return client, queryCache, nil
}

// -----------------------------------------------------------------------------

// setupStore wires the projector and query store
func setupStore(config *models.MConfig, client interfaces.IMarketDataClient) *store.Store {
	analyzer := analysis.NewAnalysisFacade(config, logger.NewLogger(config, "Analysis"))
	proj := projector.NewProjector(config, analyzer)
	return store.NewStore(config, client, proj, logger.NewLogger(config, "Store"))
}

// -----------------------------------------------------------------------------

// setupTheme loads the persisted theme; a storage failure falls back to the
// system preference
func setupTheme(ctx context.Context, config *models.MConfig, prefs interfaces.IPreferenceStore, appLogger *logger.Logger) *theme.Manager {
	manager := theme.NewManager(prefs, logger.NewLogger(config, "Theme"))
	if _, err := manager.Init(ctx); err != nil {
		appLogger.Warning("Theme init: %v", err)
	}
	return manager
}
