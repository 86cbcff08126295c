package entities

// InboundEvent is one parsed message from the messaging platform. The
// concrete type carries the event payload; handlers switch on it rather than
// inspecting nested maps.
type InboundEvent interface {
	// EventUserID returns the platform-assigned contact identifier the event
	// originated from.
	EventUserID() string
}

// TextEvent is a plain text message.
type TextEvent struct {
	UserID string
	Body   string
}

// EventUserID implements InboundEvent.
func (e TextEvent) EventUserID() string { return e.UserID }

// ButtonEvent is an interactive button reply.
type ButtonEvent struct {
	UserID   string
	ButtonID string
}

// EventUserID implements InboundEvent.
func (e ButtonEvent) EventUserID() string { return e.UserID }

// ListSelectionEvent is an interactive list reply.
type ListSelectionEvent struct {
	UserID     string
	SelectedID string
}

// EventUserID implements InboundEvent.
func (e ListSelectionEvent) EventUserID() string { return e.UserID }
