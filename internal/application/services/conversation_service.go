package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/ttdfeedback/surveybot/internal/domain/entities"
	"github.com/ttdfeedback/surveybot/internal/domain/providers"
	"github.com/ttdfeedback/surveybot/internal/domain/repositories"
	"github.com/ttdfeedback/surveybot/internal/infrastructure/observability"
	apperrors "github.com/ttdfeedback/surveybot/pkg/errors"
)

const (
	restartKeyword = "restart"

	ratingButtonPrefix = "rating_"
	yesOptionID        = "option_1"

	welcomeMessage     = "Welcome to the Tirumala Tirupati Devasthanam Feedback Survey. Your opinion matters to us!"
	welcomeBackMessage = "Welcome back to the TTD Feedback Survey."
	closingMessage     = "Thank you for completing our survey. Your feedback helps us improve. Have a blessed day! 🙏"

	moreFeedbackHeader = "Provide More Feedback?"
	moreFeedbackBody   = "Would you like to provide feedback on another category?"
)

// ConversationService is the conversation engine. Given a user's stored
// session and one inbound event it sends the next prompts and persists the
// state transition. It holds no per-user state between invocations; every
// event re-reads the session row.
type ConversationService struct {
	sessions   repositories.SessionRepository
	feedback   *FeedbackService
	notifier   providers.Notifier
	categories []string
	members    map[string]struct{}
	metrics    *observability.Metrics
}

// NewConversationService creates a new conversation service. categories is
// the ordered survey category set; it is used both to populate the list
// prompt and to validate incoming selections. metrics may be nil.
func NewConversationService(
	sessions repositories.SessionRepository,
	feedback *FeedbackService,
	notifier providers.Notifier,
	categories []string,
	metrics *observability.Metrics,
) *ConversationService {
	members := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		members[category] = struct{}{}
	}

	return &ConversationService{
		sessions:   sessions,
		feedback:   feedback,
		notifier:   notifier,
		categories: categories,
		members:    members,
		metrics:    metrics,
	}
}

// HandleEvent processes one inbound event. Malformed input is reported as a
// validation error without mutating state; events with no defined transition
// are acknowledged no-ops. A failed outbound send never blocks the state
// transition or feedback write it was tied to.
func (s *ConversationService) HandleEvent(ctx context.Context, event entities.InboundEvent) error {
	userID := event.EventUserID()
	if userID == "" {
		return apperrors.NewValidationError("event carries no user id")
	}

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return err
	}

	// Unseen users get the welcome flow regardless of what they sent, and
	// the restart keyword resets any state. Both checks run before
	// state-specific handling.
	if session == nil {
		return s.startSurvey(ctx, userID, welcomeMessage)
	}
	if text, ok := event.(entities.TextEvent); ok {
		if strings.EqualFold(strings.TrimSpace(text.Body), restartKeyword) {
			return s.startSurvey(ctx, userID, welcomeBackMessage)
		}
		// Free text has no transition in any state.
		return nil
	}

	switch ev := event.(type) {
	case entities.ListSelectionEvent:
		return s.handleCategorySelection(ctx, userID, ev.SelectedID)
	case entities.ButtonEvent:
		return s.handleButton(ctx, session, ev.ButtonID)
	default:
		return nil
	}
}

func (s *ConversationService) startSurvey(ctx context.Context, userID, greeting string) error {
	s.send(ctx, userID, "text", func() error {
		return s.notifier.SendText(ctx, userID, greeting)
	})
	s.send(ctx, userID, "category_list", func() error {
		return s.notifier.SendCategoryList(ctx, userID, s.categories)
	})
	return s.sessions.Upsert(ctx, userID, entities.StateWelcome, nil)
}

func (s *ConversationService) handleCategorySelection(ctx context.Context, userID, category string) error {
	// The list prompt only offers configured categories, but the selection
	// still arrives as an untrusted identifier.
	if _, ok := s.members[category]; !ok {
		return apperrors.NewValidationError("unknown survey category: " + category)
	}

	s.send(ctx, userID, "text", func() error {
		return s.notifier.SendText(ctx, userID, "Please rate your experience with "+category+":")
	})
	s.send(ctx, userID, "rating_prompt", func() error {
		return s.notifier.SendRatingPrompt(ctx, userID)
	})
	return s.sessions.Upsert(ctx, userID, entities.StateAwaitingRating, &category)
}

func (s *ConversationService) handleButton(ctx context.Context, session *entities.UserSession, buttonID string) error {
	switch session.State {
	case entities.StateAwaitingRating:
		return s.handleRating(ctx, session, buttonID)
	case entities.StateAwaitingMoreFeedback:
		return s.handleMoreFeedback(ctx, session.UserID, buttonID)
	default:
		// No transition defined for buttons in WELCOME or COMPLETED.
		return nil
	}
}

func (s *ConversationService) handleRating(ctx context.Context, session *entities.UserSession, buttonID string) error {
	rating, err := parseRatingID(buttonID)
	if err != nil {
		return err
	}

	category := session.SelectedCategory
	if category == "" {
		return apperrors.NewValidationError("no category selected for rating")
	}

	if err := s.feedback.Record(ctx, session.UserID, category, rating, ""); err != nil {
		return err
	}

	s.send(ctx, session.UserID, "text", func() error {
		message := "Thank you for your " + strconv.Itoa(rating) + "-star rating for " + category + ". Your feedback is valuable to us."
		return s.notifier.SendText(ctx, session.UserID, message)
	})
	s.send(ctx, session.UserID, "binary_choice", func() error {
		return s.notifier.SendBinaryChoice(ctx, session.UserID, moreFeedbackHeader, moreFeedbackBody, [2]string{"Yes", "No"})
	})

	// Category is deliberately left in place so the row still shows what
	// was rated last.
	return s.sessions.Upsert(ctx, session.UserID, entities.StateAwaitingMoreFeedback, nil)
}

func (s *ConversationService) handleMoreFeedback(ctx context.Context, userID, buttonID string) error {
	if buttonID == yesOptionID {
		s.send(ctx, userID, "category_list", func() error {
			return s.notifier.SendCategoryList(ctx, userID, s.categories)
		})
		return s.sessions.Upsert(ctx, userID, entities.StateWelcome, nil)
	}

	s.send(ctx, userID, "text", func() error {
		return s.notifier.SendText(ctx, userID, closingMessage)
	})
	return s.sessions.Upsert(ctx, userID, entities.StateCompleted, nil)
}

// send runs one outbound delivery and reports failures without propagating
// them, so the transition the send was tied to still commits.
func (s *ConversationService) send(ctx context.Context, userID, operation string, fn func() error) {
	if err := fn(); err != nil {
		observability.RecordNotificationFailure(ctx, s.metrics, operation)
		observability.LoggerFromContext(ctx).Error().
			Err(err).
			Str("user_id", userID).
			Str("operation", operation).
			Msg("Failed to deliver outbound message")
	}
}

// parseRatingID extracts N from a "rating_<N>" button identifier. Anything
// that does not decompose into the literal prefix and an integer in 1..5 is
// malformed input.
func parseRatingID(buttonID string) (int, error) {
	suffix, ok := strings.CutPrefix(buttonID, ratingButtonPrefix)
	if !ok {
		return 0, apperrors.NewValidationError("unexpected rating button id: " + buttonID)
	}
	rating, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, apperrors.NewValidationError("non-numeric rating suffix: " + buttonID)
	}
	if rating < 1 || rating > 5 {
		return 0, apperrors.NewValidationError("rating out of range: " + buttonID)
	}
	return rating, nil
}
