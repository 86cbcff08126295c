package handlers

import (
	"context"
	"net/http"

	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

// StatsService defines the statistics operations used by the handler.
type StatsService interface {
	Stats(ctx context.Context) (*entities.SurveyStats, error)
	UserStats(ctx context.Context, userID string) (*entities.UserStats, error)
}

// StatsHandler exposes survey statistics for operational dashboards.
type StatsHandler struct {
	service StatsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(service StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondWithStatsError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// GetUserStats handles GET /api/stats/{user_id}
func (h *StatsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	stats, err := h.service.UserStats(r.Context(), userID)
	if err != nil {
		respondWithStatsError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func respondWithStatsError(w http.ResponseWriter, err error) {
	if apperrors.IsType(err, apperrors.ErrorTypeUnavailable) {
		respondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
