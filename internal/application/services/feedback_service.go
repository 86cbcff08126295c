package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	"github.com/ttdfeedback/surveybot/internal/domain/repositories"
)

// FeedbackService handles feedback submissions and statistics.
type FeedbackService struct {
	repo repositories.FeedbackRepository
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo repositories.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

// Record appends one rating submission.
func (s *FeedbackService) Record(ctx context.Context, userID, category string, rating int, comment string) error {
	entry := &entities.FeedbackEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		Category:    category,
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: time.Now().UTC(),
	}
	return s.repo.Append(ctx, entry)
}

// Stats returns aggregate statistics across the whole survey.
func (s *FeedbackService) Stats(ctx context.Context) (*entities.SurveyStats, error) {
	return s.repo.Stats(ctx)
}

// UserStats returns aggregate statistics for one user.
func (s *FeedbackService) UserStats(ctx context.Context, userID string) (*entities.UserStats, error) {
	return s.repo.UserStats(ctx, userID)
}
