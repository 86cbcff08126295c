package entities

import "time"

// FeedbackEntry is one persisted rating submission. Entries are append-only;
// a user may rate the same category more than once across sessions.
type FeedbackEntry struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Category    string    `json:"category" db:"category"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     string    `json:"comment" db:"comment"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

// CategoryStats aggregates ratings for one category.
type CategoryStats struct {
	Category      string  `json:"category" db:"category"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	Count         int     `json:"count" db:"count"`
}

// SurveyStats aggregates submissions across the whole survey.
type SurveyStats struct {
	TotalResponses int             `json:"total_responses"`
	UniqueUsers    int             `json:"unique_users"`
	Categories     []CategoryStats `json:"categories"`
}

// UserStats aggregates one user's submissions.
type UserStats struct {
	TotalFeedbacks int        `json:"total_feedbacks" db:"total_feedbacks"`
	AverageRating  float64    `json:"average_rating" db:"average_rating"`
	LastFeedback   *time.Time `json:"last_feedback" db:"last_feedback"`
}
