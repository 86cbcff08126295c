package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/ttdfeedback/surveybot/internal/infrastructure/observability"
	"github.com/ttdfeedback/surveybot/pkg/config"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers health checks, including the signed health probes the
// WhatsApp platform sends for Flow endpoints.
type HealthHandler struct {
	db             Pinger
	privateKeyPath string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, cfg *config.HealthConfig) *HealthHandler {
	return &HealthHandler{
		db:             db,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

type healthStatus struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	Version           string `json:"version"`
	WhatsAppConnected bool   `json:"whatsapp_api_connected,omitempty"`
}

// HandleHealth handles GET and POST /health. Signed POST requests carrying
// X-Signature and X-Skip-Base64 are verified against the private key; the
// default response body is Base64 encoded, which is what WhatsApp Flow
// health checks expect.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	status := healthStatus{
		Status:  "healthy",
		Version: "1.0.0",
	}
	if err := h.db.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Database health check failed")
		status.Status = "degraded"
	} else {
		status.DatabaseConnected = true
	}

	if r.Method == http.MethodPost && r.Header.Get("X-Signature") != "" && r.Header.Get("X-Skip-Base64") != "" {
		h.handleSignedCheck(w, r, status)
		return
	}

	// Base64-encoded body for WhatsApp Flow health checks.
	payload, _ := json.Marshal(status)
	encoded := base64.StdEncoding.EncodeToString(payload)
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(encoded))
}

func (h *HealthHandler) handleSignedCheck(w http.ResponseWriter, r *http.Request, status healthStatus) {
	logger := observability.LoggerFromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	key, err := os.ReadFile(h.privateKeyPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load private key")
		respondWithError(w, http.StatusInternalServerError, "server configuration error")
		return
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	calculated := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(calculated), []byte(r.Header.Get("X-Signature"))) {
		logger.Warn().Msg("Invalid signature in health check request")
		respondWithError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	status.WhatsAppConnected = true
	respondWithJSON(w, http.StatusOK, status)
}
