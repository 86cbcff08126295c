package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ttdfeedback/surveybot/internal/domain/providers"
	"github.com/ttdfeedback/surveybot/pkg/config"
)

// WhatsAppCloudSender sends messages via the WhatsApp Cloud API. It
// implements providers.Notifier.
type WhatsAppCloudSender struct {
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	baseURL       string
}

// NewWhatsAppCloudSender creates a new WhatsApp sender
func NewWhatsAppCloudSender(cfg *config.WhatsAppConfig) (*WhatsAppCloudSender, error) {
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("WhatsApp access token and phone number ID must be set")
	}

	return &WhatsAppCloudSender{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
	}, nil
}

var _ providers.Notifier = (*WhatsAppCloudSender)(nil)

// WhatsAppTextMessage represents a text message
type WhatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// WhatsAppInteractiveMessage represents an interactive button or list message
type WhatsAppInteractiveMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Interactive      WhatsAppInteractive `json:"interactive"`
}

// WhatsAppInteractive represents the interactive payload body
type WhatsAppInteractive struct {
	Type   string                  `json:"type"`
	Header *WhatsAppTextHeader     `json:"header,omitempty"`
	Body   WhatsAppTextBody        `json:"body"`
	Footer *WhatsAppTextBody       `json:"footer,omitempty"`
	Action WhatsAppInteractiveCall `json:"action"`
}

// WhatsAppTextHeader represents a text header
type WhatsAppTextHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// WhatsAppTextBody represents a body or footer text
type WhatsAppTextBody struct {
	Text string `json:"text"`
}

// WhatsAppInteractiveCall represents the action section of an interactive
// message. Buttons is set for button messages, Button and Sections for lists.
type WhatsAppInteractiveCall struct {
	Buttons  []WhatsAppButton      `json:"buttons,omitempty"`
	Button   string                `json:"button,omitempty"`
	Sections []WhatsAppListSection `json:"sections,omitempty"`
}

// WhatsAppButton represents one reply button
type WhatsAppButton struct {
	Type  string              `json:"type"`
	Reply WhatsAppButtonReply `json:"reply"`
}

// WhatsAppButtonReply holds a button identifier and title
type WhatsAppButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WhatsAppListSection represents one section of a list message
type WhatsAppListSection struct {
	Title string            `json:"title"`
	Rows  []WhatsAppListRow `json:"rows"`
}

// WhatsAppListRow represents one selectable list row
type WhatsAppListRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WhatsAppResponse represents the API response
type WhatsAppResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a text message
func (w *WhatsAppCloudSender) SendText(ctx context.Context, recipient, message string) error {
	payload := WhatsAppTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient,
		Type:             "text",
	}
	payload.Text.Body = message

	_, err := w.sendMessage(ctx, payload)
	return err
}

// SendBinaryChoice sends a two-button prompt with positionally derived
// identifiers option_1 and option_2.
func (w *WhatsAppCloudSender) SendBinaryChoice(ctx context.Context, recipient, header, body string, labels [2]string) error {
	buttons := make([]WhatsAppButton, len(labels))
	for i, label := range labels {
		buttons[i] = WhatsAppButton{
			Type: "reply",
			Reply: WhatsAppButtonReply{
				ID:    fmt.Sprintf("option_%d", i+1),
				Title: label,
			},
		}
	}

	payload := w.interactiveButtons(recipient, header, body, buttons)
	_, err := w.sendMessage(ctx, payload)
	return err
}

// SendRatingPrompt sends the 1-5 star rating buttons
func (w *WhatsAppCloudSender) SendRatingPrompt(ctx context.Context, recipient string) error {
	buttons := make([]WhatsAppButton, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		buttons = append(buttons, WhatsAppButton{
			Type: "reply",
			Reply: WhatsAppButtonReply{
				ID:    fmt.Sprintf("rating_%d", rating),
				Title: strings.Repeat("⭐", rating),
			},
		})
	}

	payload := w.interactiveButtons(
		recipient,
		"Rate Your Experience",
		"Please select a rating from 1 to 5 stars:",
		buttons,
	)
	_, err := w.sendMessage(ctx, payload)
	return err
}

// SendCategoryList sends the survey categories as a selectable list. Each
// row identifier equals the category string.
func (w *WhatsAppCloudSender) SendCategoryList(ctx context.Context, recipient string, categories []string) error {
	rows := make([]WhatsAppListRow, len(categories))
	for i, category := range categories {
		rows[i] = WhatsAppListRow{ID: category, Title: category}
	}

	payload := WhatsAppInteractiveMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient,
		Type:             "interactive",
		Interactive: WhatsAppInteractive{
			Type:   "list",
			Header: &WhatsAppTextHeader{Type: "text", Text: "TTD Feedback Survey"},
			Body:   WhatsAppTextBody{Text: "Please select a category to provide your feedback:"},
			Footer: &WhatsAppTextBody{Text: "Thank you for your valuable feedback"},
			Action: WhatsAppInteractiveCall{
				Button: "Select Category",
				Sections: []WhatsAppListSection{
					{Title: "Services", Rows: rows},
				},
			},
		},
	}

	_, err := w.sendMessage(ctx, payload)
	return err
}

func (w *WhatsAppCloudSender) interactiveButtons(recipient, header, body string, buttons []WhatsAppButton) WhatsAppInteractiveMessage {
	return WhatsAppInteractiveMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient,
		Type:             "interactive",
		Interactive: WhatsAppInteractive{
			Type:   "button",
			Header: &WhatsAppTextHeader{Type: "text", Text: header},
			Body:   WhatsAppTextBody{Text: body},
			Action: WhatsAppInteractiveCall{Buttons: buttons},
		},
	}
}

// sendMessage sends a message to WhatsApp Cloud API and returns the message ID
func (w *WhatsAppCloudSender) sendMessage(ctx context.Context, message interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)

	jsonData, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode, string(body))
	}

	var whatsappResp WhatsAppResponse
	if err := json.Unmarshal(body, &whatsappResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(whatsappResp.Messages) > 0 {
		return whatsappResp.Messages[0].ID, nil
	}

	return "", fmt.Errorf("no message ID in response")
}
