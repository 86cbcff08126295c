package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttdfeedback/surveybot/internal/adapters/database"
	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/clients/postgres"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

func newMockAdapter(t *testing.T) (*database.SessionAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := database.NewSessionAdapter(postgres.NewClientFromDB(db))
	return adapter, mock
}

func TestSessionAdapter_Get_NoRow(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT .* FROM "user_sessions"`).
		WithArgs("919876543210").
		WillReturnError(sql.ErrNoRows)

	session, err := adapter.Get(context.Background(), "919876543210")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionAdapter_Get_Found(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"user_id", "state", "selected_category", "updated_at"}).
		AddRow("919876543210", "AWAITING_RATING", "ROOMS", now)
	mock.ExpectQuery(`SELECT .* FROM "user_sessions"`).
		WithArgs("919876543210").
		WillReturnRows(rows)

	session, err := adapter.Get(context.Background(), "919876543210")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, entities.StateAwaitingRating, session.State)
	assert.Equal(t, "ROOMS", session.SelectedCategory)
}

func TestSessionAdapter_Get_NullCategory(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	rows := sqlmock.NewRows([]string{"user_id", "state", "selected_category", "updated_at"}).
		AddRow("919876543210", "WELCOME", nil, time.Now().UTC())
	mock.ExpectQuery(`SELECT .* FROM "user_sessions"`).
		WithArgs("919876543210").
		WillReturnRows(rows)

	session, err := adapter.Get(context.Background(), "919876543210")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, entities.StateWelcome, session.State)
	assert.Empty(t, session.SelectedCategory)
}

func TestSessionAdapter_Get_StorageError(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT .* FROM "user_sessions"`).
		WithArgs("919876543210").
		WillReturnError(sql.ErrConnDone)

	session, err := adapter.Get(context.Background(), "919876543210")
	require.Error(t, err)
	assert.Nil(t, session)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}

func TestSessionAdapter_Upsert_WithCategory(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	category := "QLINE"
	mock.ExpectExec(`INSERT INTO user_sessions`).
		WithArgs("919876543210", "AWAITING_RATING", sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Upsert(context.Background(), "919876543210", entities.StateAwaitingRating, &category)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionAdapter_Upsert_WithoutCategory(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	// A nil category must pass false for the category-update flag so the
	// stored selection survives the transition.
	mock.ExpectExec(`INSERT INTO user_sessions`).
		WithArgs("919876543210", "AWAITING_MORE_FEEDBACK", sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Upsert(context.Background(), "919876543210", entities.StateAwaitingMoreFeedback, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionAdapter_Upsert_StorageError(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`INSERT INTO user_sessions`).
		WillReturnError(sql.ErrConnDone)

	err := adapter.Upsert(context.Background(), "919876543210", entities.StateWelcome, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}
