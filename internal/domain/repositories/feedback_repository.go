package repositories

import (
	"context"

	"github.com/ttdfeedback/surveybot/internal/domain/entities"
)

// FeedbackRepository defines the interface for feedback persistence.
type FeedbackRepository interface {
	// Append inserts one feedback entry. Entries are never updated or
	// deleted.
	Append(ctx context.Context, entry *entities.FeedbackEntry) error

	// Stats returns aggregate statistics across all submissions.
	Stats(ctx context.Context) (*entities.SurveyStats, error)

	// UserStats returns aggregate statistics for one user.
	UserStats(ctx context.Context, userID string) (*entities.UserStats, error)
}
