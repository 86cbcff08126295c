package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	"github.com/ttdfeedback/surveybot/internal/domain/providers"
	"github.com/ttdfeedback/surveybot/internal/domain/repositories"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/observability"
	"github.com/ttdfeedback/surveybot/pkg/config"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

// webhookDedupTTLSeconds bounds how long a delivered message ID is remembered
// in the cache-backed dedup path.
const webhookDedupTTLSeconds = 24 * 60 * 60

// ConversationEngine processes one parsed inbound event.
type ConversationEngine interface {
	HandleEvent(ctx context.Context, event entities.InboundEvent) error
}

// WebhookHandler handles WhatsApp Cloud API webhook requests: subscription
// verification on GET and message notifications on POST.
type WebhookHandler struct {
	engine      ConversationEngine
	cache       providers.CacheProvider
	eventLog    repositories.EventLogRepository
	verifyToken string
	appSecret   string
	metrics     *observability.Metrics
}

// NewWebhookHandler creates a new webhook handler. cache and eventLog back
// duplicate-delivery suppression; either may be nil, in which case the other
// is used, and with both nil duplicates are processed again (the engine
// tolerates that with last-writer-wins semantics).
func NewWebhookHandler(
	engine ConversationEngine,
	cache providers.CacheProvider,
	eventLog repositories.EventLogRepository,
	cfg *config.WhatsAppConfig,
	metrics *observability.Metrics,
) *WebhookHandler {
	return &WebhookHandler{
		engine:      engine,
		cache:       cache,
		eventLog:    eventLog,
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		metrics:     metrics,
	}
}

// webhookPayload mirrors the WhatsApp Business webhook envelope, down to the
// fields this service consumes.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// VerifySubscription handles GET /webhook, the hub challenge the platform
// sends when the webhook is registered.
func (h *WebhookHandler) VerifySubscription(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		observability.LoggerFromContext(r.Context()).Info().Msg("Webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	observability.LoggerFromContext(r.Context()).Warn().Msg("Failed webhook verification")
	w.WriteHeader(http.StatusForbidden)
}

// HandleWebhook handles POST /webhook. Once the payload is authenticated and
// parsed, the response is always 200: engine-level failures are logged and
// counted but never surfaced to the platform, which would otherwise redeliver.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if h.appSecret != "" && !h.verifySignature(r, body) {
		logger.Warn().Msg("Invalid webhook signature")
		respondWithError(w, http.StatusForbidden, "invalid signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if payload.Object != "whatsapp_business_account" {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			userID := ""
			if len(change.Value.Contacts) > 0 {
				userID = change.Value.Contacts[0].WaID
			}
			for _, message := range change.Value.Messages {
				h.processMessage(ctx, userID, message)
			}
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (h *WebhookHandler) processMessage(ctx context.Context, userID string, message webhookMessage) {
	logger := observability.LoggerFromContext(ctx)

	if message.ID != "" && h.isDuplicate(ctx, message.ID) {
		logger.Debug().Str("message_id", message.ID).Msg("Skipping duplicate webhook delivery")
		observability.RecordEventMetric(ctx, h.metrics, message.Type, "duplicate")
		return
	}

	event, ok := toInboundEvent(userID, message)
	if !ok {
		logger.Debug().Str("type", message.Type).Msg("Ignoring unsupported message type")
		observability.RecordEventMetric(ctx, h.metrics, message.Type, "unsupported")
		return
	}

	outcome := "processed"
	if err := h.engine.HandleEvent(ctx, event); err != nil {
		switch {
		case apperrors.IsType(err, apperrors.ErrorTypeValidation):
			outcome = "malformed"
			logger.Warn().Err(err).Str("user_id", userID).Msg("Malformed inbound event")
		case apperrors.IsType(err, apperrors.ErrorTypeUnavailable):
			outcome = "storage_unavailable"
			logger.Error().Err(err).Str("user_id", userID).Msg("Storage unavailable while handling event")
		default:
			outcome = "error"
			logger.Error().Err(err).Str("user_id", userID).Msg("Failed to handle inbound event")
		}
	}
	observability.RecordEventMetric(ctx, h.metrics, message.Type, outcome)

	if message.ID != "" {
		h.markProcessed(ctx, message.ID)
	}
}

// toInboundEvent maps a webhook message onto the engine's event union. The
// contact's wa_id takes precedence over the message's from field.
func toInboundEvent(userID string, message webhookMessage) (entities.InboundEvent, bool) {
	if userID == "" {
		userID = message.From
	}

	switch {
	case message.Text != nil:
		return entities.TextEvent{UserID: userID, Body: message.Text.Body}, true
	case message.Interactive != nil && message.Interactive.ButtonReply != nil:
		return entities.ButtonEvent{UserID: userID, ButtonID: message.Interactive.ButtonReply.ID}, true
	case message.Interactive != nil && message.Interactive.ListReply != nil:
		return entities.ListSelectionEvent{UserID: userID, SelectedID: message.Interactive.ListReply.ID}, true
	default:
		return nil, false
	}
}

func (h *WebhookHandler) verifySignature(r *http.Request, body []byte) bool {
	signature := strings.TrimPrefix(r.Header.Get("X-Hub-Signature-256"), "sha256=")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

func (h *WebhookHandler) isDuplicate(ctx context.Context, messageID string) bool {
	if h.cache != nil {
		exists, err := h.cache.Exists(ctx, "webhook:msg:"+messageID)
		if err == nil {
			return exists
		}
	}
	if h.eventLog != nil {
		seen, err := h.eventLog.IsProcessed(ctx, messageID)
		if err == nil {
			return seen
		}
	}
	return false
}

func (h *WebhookHandler) markProcessed(ctx context.Context, messageID string) {
	logger := observability.LoggerFromContext(ctx)

	if h.cache != nil {
		if err := h.cache.Set(ctx, "webhook:msg:"+messageID, []byte("1"), webhookDedupTTLSeconds); err != nil {
			logger.Warn().Err(err).Msg("Failed to record webhook delivery in cache")
		}
		return
	}
	if h.eventLog != nil {
		if err := h.eventLog.MarkProcessed(ctx, messageID); err != nil {
			logger.Warn().Err(err).Msg("Failed to record webhook delivery")
		}
	}
}
