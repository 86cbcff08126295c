package routes

import (
	"net/http"

	"github.com/ttdfeedback/surveybot/internal/api/handlers"
	"github.com/ttdfeedback/surveybot/internal/api/middleware"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	webhookHandler *handlers.WebhookHandler
	healthHandler  *handlers.HealthHandler
	statsHandler   *handlers.StatsHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
	statsHandler *handlers.StatsHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		webhookHandler: webhookHandler,
		healthHandler:  healthHandler,
		statsHandler:   statsHandler,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("TTD Survey Bot is running. Webhook endpoint: /webhook"))
	})

	// Webhook endpoints
	r.mux.HandleFunc("GET /webhook", r.webhookHandler.VerifySubscription)
	r.mux.HandleFunc("POST /webhook", r.webhookHandler.HandleWebhook)

	// Health check endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.HandleHealth)
	r.mux.HandleFunc("POST /health", r.healthHandler.HandleHealth)

	// Statistics endpoints
	r.mux.HandleFunc("GET /api/stats", r.statsHandler.GetStats)
	r.mux.HandleFunc("GET /api/stats/{user_id}", r.statsHandler.GetUserStats)

	var handler http.Handler = r.mux
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	handler = middleware.LoggingMiddleware(handler)

	return handler
}
