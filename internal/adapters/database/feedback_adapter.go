package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	"github.com/ttdfeedback/surveybot/internal/domain/repositories"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/clients/postgres"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

// FeedbackAdapter implements feedback persistence in Postgres.
type FeedbackAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFeedbackAdapter creates a new feedback adapter.
func NewFeedbackAdapter(client *postgres.Client) *FeedbackAdapter {
	return &FeedbackAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.FeedbackRepository = (*FeedbackAdapter)(nil)

// EnsureSchema creates the feedback table if it does not exist.
func (a *FeedbackAdapter) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS feedback_entries (
			id UUID PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			category VARCHAR(50) NOT NULL,
			rating INT NOT NULL,
			comment TEXT,
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_entries_user_id ON feedback_entries (user_id)
	`
	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewUnavailableError("failed to create feedback_entries table", err)
	}
	return nil
}

// Append inserts a feedback record.
func (a *FeedbackAdapter) Append(ctx context.Context, entry *entities.FeedbackEntry) error {
	if entry == nil {
		return apperrors.NewInternalError("feedback entry is nil", fmt.Errorf("feedback entry is nil"))
	}

	record := goqu.Record{
		"id":           entry.ID,
		"user_id":      entry.UserID,
		"category":     entry.Category,
		"rating":       entry.Rating,
		"comment":      sql.NullString{String: entry.Comment, Valid: entry.Comment != ""},
		"submitted_at": entry.SubmittedAt,
	}

	query, args, err := a.db.Insert("feedback_entries").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewUnavailableError("failed to append feedback", err)
	}

	return nil
}

// Stats returns aggregate statistics across all submissions.
func (a *FeedbackAdapter) Stats(ctx context.Context) (*entities.SurveyStats, error) {
	stats := &entities.SurveyStats{}

	totalsQuery := `
		SELECT COUNT(*), COUNT(DISTINCT user_id)
		FROM feedback_entries
	`
	row := a.client.DB().QueryRowContext(ctx, totalsQuery)
	if err := row.Scan(&stats.TotalResponses, &stats.UniqueUsers); err != nil {
		return nil, apperrors.NewUnavailableError("failed to get survey totals", err)
	}

	categoriesQuery := `
		SELECT category, AVG(rating), COUNT(*)
		FROM feedback_entries
		GROUP BY category
		ORDER BY AVG(rating) DESC
	`
	rows, err := a.client.DB().QueryContext(ctx, categoriesQuery)
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to get category stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cat entities.CategoryStats
		if err := rows.Scan(&cat.Category, &cat.AverageRating, &cat.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category stats", err)
		}
		stats.Categories = append(stats.Categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUnavailableError("failed to iterate category stats", err)
	}

	return stats, nil
}

// UserStats returns aggregate statistics for one user.
func (a *FeedbackAdapter) UserStats(ctx context.Context, userID string) (*entities.UserStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_feedbacks,
			COALESCE(AVG(rating), 0) AS average_rating,
			MAX(submitted_at) AS last_feedback
		FROM feedback_entries
		WHERE user_id = $1
	`

	stats := &entities.UserStats{}
	row := a.client.DB().QueryRowContext(ctx, query, userID)
	if err := row.Scan(&stats.TotalFeedbacks, &stats.AverageRating, &stats.LastFeedback); err != nil {
		return nil, apperrors.NewUnavailableError("failed to get user stats", err)
	}

	return stats, nil
}
