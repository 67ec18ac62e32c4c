package main

import (
	"context"

	"coin-dashboard/src/grpc_control"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
	"coin-dashboard/src/network"
	"coin-dashboard/src/server"
	"coin-dashboard/src/store"
	"coin-dashboard/src/theme"
)

// runningServers stops what startServers launched
type runningServers struct {
	srv     *server.FastAPIServer
	control *grpc_control.ControlService
	cancel  context.CancelFunc
	logger  *logger.Logger
}

// -----------------------------------------------------------------------------

// startServers orchestrates the startup of all server components
func startServers(
	ctx context.Context,
	config *models.MConfig,
	dataStore *store.Store,
	themeManager *theme.Manager,
	breaker *network.CircuitBreaker,
	appLogger *logger.Logger,
) *runningServers {
	ctx, cancel := context.WithCancel(ctx)
	running := &runningServers{cancel: cancel, logger: appLogger}

	// 1. FastAPIServer
	srv := server.NewFastAPIServer(config, dataStore, themeManager, breaker, logger.NewLogger(config, "FastAPIServer"))
	themeManager.SetExchanger(srv)
	running.srv = srv
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	if config.GrpcPort != 0 {
		control := grpc_control.NewControlService(config, breaker, logger.NewLogger(config, "ControlService"))
		running.control = control
		go control.Watch(ctx)
		go func() {
			if err := control.Start(); err != nil {
				appLogger.Critical("failed to serve gRPC: %v", err)
			}
		}()
	}

	return running
}

// -----------------------------------------------------------------------------

func (r *runningServers) stop() {
	r.cancel()
	if err := r.srv.Stop(); err != nil {
		r.logger.Error("Server shutdown: %v", err)
	}
	if r.control != nil {
		r.control.Stop()
	}
}
