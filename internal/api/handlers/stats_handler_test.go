package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttdfeedback/surveybot/internal/api/handlers"
	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

type stubStatsService struct {
	stats     *entities.SurveyStats
	userStats *entities.UserStats
	err       error
}

func (s *stubStatsService) Stats(ctx context.Context) (*entities.SurveyStats, error) {
	return s.stats, s.err
}

func (s *stubStatsService) UserStats(ctx context.Context, userID string) (*entities.UserStats, error) {
	return s.userStats, s.err
}

func TestStatsHandler_GetStats(t *testing.T) {
	service := &stubStatsService{
		stats: &entities.SurveyStats{
			TotalResponses: 42,
			UniqueUsers:    7,
			Categories: []entities.CategoryStats{
				{Category: "ROOMS", AverageRating: 4.2, Count: 20},
			},
		},
	}
	handler := handlers.NewStatsHandler(service)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats entities.SurveyStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 42, stats.TotalResponses)
	require.Len(t, stats.Categories, 1)
	assert.Equal(t, "ROOMS", stats.Categories[0].Category)
}

func TestStatsHandler_GetStats_StorageUnavailable(t *testing.T) {
	service := &stubStatsService{
		err: apperrors.NewUnavailableError("db down", errors.New("connection refused")),
	}
	handler := handlers.NewStatsHandler(service)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatsHandler_GetUserStats(t *testing.T) {
	service := &stubStatsService{
		userStats: &entities.UserStats{TotalFeedbacks: 3, AverageRating: 4.0},
	}
	handler := handlers.NewStatsHandler(service)

	req := httptest.NewRequest("GET", "/api/stats/919876543210", nil)
	req.SetPathValue("user_id", "919876543210")
	w := httptest.NewRecorder()
	handler.GetUserStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats entities.UserStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalFeedbacks)
}

func TestStatsHandler_GetUserStats_MissingID(t *testing.T) {
	handler := handlers.NewStatsHandler(&stubStatsService{})

	req := httptest.NewRequest("GET", "/api/stats/", nil)
	w := httptest.NewRecorder()
	handler.GetUserStats(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
