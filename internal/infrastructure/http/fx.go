package http

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/oldkaseb/najbot/config"
	"github.com/oldkaseb/najbot/internal/infrastructure/http/server"
)

// Module provides HTTP server for fx DI.
// The invoke forces construction; nothing else in the graph consumes
// the server.
var Module = fx.Module("http",
	fx.Provide(NewServerFx),
	fx.Invoke(registerEndpoints),
)

// NewServerFx creates HTTP server with lifecycle hooks for fx DI
func NewServerFx(
	lc fx.Lifecycle,
	serviceCfg *config.ServiceConfig,
	logger zerolog.Logger,
) *server.Server {
	srv := server.NewServer(serviceCfg.Name, serviceCfg.Port, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

// registerEndpoints wires the metrics and health endpoints
func registerEndpoints(srv *server.Server, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for health check: %w", err)
	}

	srv.RegisterMetrics()
	srv.RegisterHealth(sqlDB)

	return nil
}
