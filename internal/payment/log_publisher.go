package payment

import (
	"context"

	"github.com/assetized/asset-registry/pkg/logger"
)

// LogPublisher is a publisher that only logs. Used for standalone runs and
// tests where no broker is available.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	logger.Warn(ctx, "Publish skipped (no broker) : exchange=%s key=%s", exchange, routingKey)
	return nil
}

func (p *LogPublisher) Close() {}
