package service

import (
	"context"
	"time"

	"shop-service/internal/models"
)

// EventPublisher publishes domain events; satisfied by broker.EventPublisher.
// Publishing is best-effort: failures are logged, never fatal to a run.
type EventPublisher interface {
	PublishClientQueued(ctx context.Context, event *models.ClientQueuedEvent) error
	PublishSettlementSucceeded(ctx context.Context, event *models.SettlementSucceededEvent) error
	PublishSettlementFailed(ctx context.Context, event *models.SettlementFailedEvent) error
}

// Locker guards a shop's consistency unit so two runs against the same
// shop never interleave; satisfied by redisclient.Client.
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}
