package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	"github.com/ttdfeedback/surveybot/internal/domain/repositories"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/clients/postgres"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

// SessionAdapter implements conversation session persistence in Postgres.
type SessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSessionAdapter creates a new session adapter.
func NewSessionAdapter(client *postgres.Client) *SessionAdapter {
	return &SessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.SessionRepository = (*SessionAdapter)(nil)

// EnsureSchema creates the session table if it does not exist.
func (a *SessionAdapter) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS user_sessions (
			user_id VARCHAR(64) PRIMARY KEY,
			state VARCHAR(50) NOT NULL,
			selected_category VARCHAR(50),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewUnavailableError("failed to create user_sessions table", err)
	}
	return nil
}

// Get retrieves the session for userID, or (nil, nil) when none exists.
func (a *SessionAdapter) Get(ctx context.Context, userID string) (*entities.UserSession, error) {
	query, args, err := a.db.From("user_sessions").
		Select("user_id", "state", "selected_category", "updated_at").
		Where(goqu.C("user_id").Eq(userID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build session select query", err)
	}

	var (
		session  entities.UserSession
		state    string
		category sql.NullString
	)
	row := a.client.DB().QueryRowContext(ctx, query, args...)
	if err := row.Scan(&session.UserID, &state, &category, &session.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.NewUnavailableError("failed to get session", err)
	}

	session.State = entities.ConversationState(state)
	session.SelectedCategory = category.String
	return &session, nil
}

// Upsert inserts or updates the session row with a single statement, so
// concurrent writes for the same user resolve last-writer-wins. A nil
// category leaves the stored selected_category untouched.
func (a *SessionAdapter) Upsert(ctx context.Context, userID string, state entities.ConversationState, category *string) error {
	query := `
		INSERT INTO user_sessions (user_id, state, selected_category, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			state = EXCLUDED.state,
			selected_category = CASE
				WHEN $5 THEN EXCLUDED.selected_category
				ELSE user_sessions.selected_category
			END,
			updated_at = EXCLUDED.updated_at
	`

	categoryValue := sql.NullString{}
	if category != nil {
		categoryValue = sql.NullString{String: *category, Valid: true}
	}

	_, err := a.client.DB().ExecContext(
		ctx,
		query,
		userID,
		string(state),
		categoryValue,
		time.Now().UTC(),
		category != nil,
	)
	if err != nil {
		return apperrors.NewUnavailableError("failed to upsert session", err)
	}
	return nil
}
