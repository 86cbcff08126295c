package entities

import "time"

// ConversationState identifies a user's position in the survey flow.
type ConversationState string

const (
	// StateWelcome is the initial state. Users without a session row are
	// implicitly in this state.
	StateWelcome ConversationState = "WELCOME"

	// StateAwaitingRating means a category has been selected and the bot is
	// waiting for a 1-5 rating.
	StateAwaitingRating ConversationState = "AWAITING_RATING"

	// StateAwaitingMoreFeedback means a rating was recorded and the bot is
	// waiting for a yes/no answer on whether to continue.
	StateAwaitingMoreFeedback ConversationState = "AWAITING_MORE_FEEDBACK"

	// StateCompleted is the terminal state. The row stays until the user
	// restarts.
	StateCompleted ConversationState = "COMPLETED"
)

// UserSession is the durable record of one user's position in the survey
// conversation. SelectedCategory is set while a rating is pending; it is not
// cleared when the survey completes, so a stale value may remain until the
// next category selection.
type UserSession struct {
	UserID           string            `json:"user_id" db:"user_id"`
	State            ConversationState `json:"state" db:"state"`
	SelectedCategory string            `json:"selected_category" db:"selected_category"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}
