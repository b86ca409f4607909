// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"go.uber.org/fx"

	"github.com/oldkaseb/najbot/internal/infrastructure/cache"
	"github.com/oldkaseb/najbot/internal/infrastructure/database"
	"github.com/oldkaseb/najbot/internal/infrastructure/http"
	"github.com/oldkaseb/najbot/internal/infrastructure/kafka"
	"github.com/oldkaseb/najbot/internal/infrastructure/logger"
	"github.com/oldkaseb/najbot/internal/infrastructure/metrics"
	"github.com/oldkaseb/najbot/internal/infrastructure/telegram"
)

// Module provides all infrastructure components for fx dependency injection
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module,
	cache.Module,
	metrics.Module,
	kafka.Module,
	telegram.Module,
	http.Module,
)
