package repositories

import (
	"context"

	"github.com/ttdfeedback/surveybot/internal/domain/entities"
)

// SessionRepository defines the interface for conversation session storage.
// At most one row exists per user.
type SessionRepository interface {
	// Get retrieves a session by user ID. It returns (nil, nil) when no
	// session exists; an error is only returned when the store itself fails.
	Get(ctx context.Context, userID string) (*entities.UserSession, error)

	// Upsert inserts or updates the session for userID. When category is nil
	// the stored selected_category is left untouched, so a later feedback
	// write can still reference the last selection.
	Upsert(ctx context.Context, userID string, state entities.ConversationState, category *string) error
}
