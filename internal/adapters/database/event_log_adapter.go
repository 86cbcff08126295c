package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ttdfeedback/surveybot/internal/domain/repositories"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

// EventLogAdapter records processed webhook message IDs in Postgres. It backs
// duplicate-delivery suppression when Redis is unavailable.
type EventLogAdapter struct {
	db *sqlx.DB
}

// NewEventLogAdapter creates a new event log adapter.
func NewEventLogAdapter(db *sqlx.DB) *EventLogAdapter {
	return &EventLogAdapter{db: db}
}

var _ repositories.EventLogRepository = (*EventLogAdapter)(nil)

// EnsureSchema creates the webhook event table if it does not exist.
func (a *EventLogAdapter) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS webhook_events (
			message_id VARCHAR(128) PRIMARY KEY,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return apperrors.NewUnavailableError("failed to create webhook_events table", err)
	}
	return nil
}

// IsProcessed reports whether the platform message ID has been seen.
func (a *EventLogAdapter) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := a.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM webhook_events WHERE message_id = $1)", messageID)
	if err != nil {
		return false, apperrors.NewUnavailableError("failed to check webhook event", err)
	}
	return exists, nil
}

// MarkProcessed records the platform message ID as handled. Re-marking an
// already recorded ID is a no-op.
func (a *EventLogAdapter) MarkProcessed(ctx context.Context, messageID string) error {
	_, err := a.db.ExecContext(ctx,
		"INSERT INTO webhook_events (message_id, processed_at) VALUES ($1, $2) ON CONFLICT (message_id) DO NOTHING",
		messageID, time.Now().UTC())
	if err != nil {
		return apperrors.NewUnavailableError("failed to record webhook event", err)
	}
	return nil
}
