// Package kafka contains Kafka audit event infrastructure
package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
)

// Module provides Kafka producer for fx dependency injection
var Module = fx.Module("kafka",
	fx.Provide(NewProducer),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, producer deps.AuditProducer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
}
