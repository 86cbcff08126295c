package repositories

import "context"

// EventLogRepository records processed webhook deliveries for duplicate
// suppression when Redis is unavailable.
type EventLogRepository interface {
	// IsProcessed reports whether the platform message ID has been seen.
	IsProcessed(ctx context.Context, messageID string) (bool, error)

	// MarkProcessed records the platform message ID as handled.
	MarkProcessed(ctx context.Context, messageID string) error
}
