package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ttdfeedback/surveybot/pkg/config"
)

func TestNewWhatsAppCloudSender(t *testing.T) {
	tests := []struct {
		name          string
		accessToken   string
		phoneNumberID string
		wantErr       bool
	}{
		{
			name:          "Valid credentials",
			accessToken:   "test_token",
			phoneNumberID: "123456789",
			wantErr:       false,
		},
		{
			name:          "Missing access token",
			accessToken:   "",
			phoneNumberID: "123456789",
			wantErr:       true,
		},
		{
			name:          "Missing phone number ID",
			accessToken:   "test_token",
			phoneNumberID: "",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.WhatsAppConfig{
				AccessToken:   tt.accessToken,
				PhoneNumberID: tt.phoneNumberID,
				BaseURL:       "https://graph.facebook.com/v18.0",
			}

			sender, err := NewWhatsAppCloudSender(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewWhatsAppCloudSender() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && sender == nil {
				t.Error("NewWhatsAppCloudSender() returned nil sender")
			}
		})
	}
}

func newTestSender(t *testing.T, handler http.HandlerFunc) (*WhatsAppCloudSender, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender, err := NewWhatsAppCloudSender(&config.WhatsAppConfig{
		AccessToken:   "test_token",
		PhoneNumberID: "123456789",
		BaseURL:       server.URL,
	})
	if err != nil {
		t.Fatalf("NewWhatsAppCloudSender() error = %v", err)
	}
	return sender, server
}

func okResponse(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(WhatsAppResponse{
		MessagingProduct: "whatsapp",
		Messages: []struct {
			ID string `json:"id"`
		}{
			{ID: "wamid.test123"},
		},
	})
}

func TestWhatsAppCloudSender_SendText(t *testing.T) {
	var captured WhatsAppTextMessage
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test_token" {
			t.Errorf("unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		okResponse(w)
	})

	err := sender.SendText(context.Background(), "919876543210", "Welcome!")
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	if captured.To != "919876543210" {
		t.Errorf("To = %s, want 919876543210", captured.To)
	}
	if captured.Type != "text" {
		t.Errorf("Type = %s, want text", captured.Type)
	}
	if captured.Text.Body != "Welcome!" {
		t.Errorf("Body = %s, want Welcome!", captured.Text.Body)
	}
}

func TestWhatsAppCloudSender_SendBinaryChoice(t *testing.T) {
	var captured WhatsAppInteractiveMessage
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		okResponse(w)
	})

	err := sender.SendBinaryChoice(
		context.Background(),
		"919876543210",
		"Provide More Feedback?",
		"Would you like to provide feedback on another category?",
		[2]string{"Yes", "No"},
	)
	if err != nil {
		t.Fatalf("SendBinaryChoice() error = %v", err)
	}

	if captured.Interactive.Type != "button" {
		t.Errorf("interactive type = %s, want button", captured.Interactive.Type)
	}
	buttons := captured.Interactive.Action.Buttons
	if len(buttons) != 2 {
		t.Fatalf("got %d buttons, want 2", len(buttons))
	}
	if buttons[0].Reply.ID != "option_1" || buttons[0].Reply.Title != "Yes" {
		t.Errorf("first button = %+v, want option_1/Yes", buttons[0].Reply)
	}
	if buttons[1].Reply.ID != "option_2" || buttons[1].Reply.Title != "No" {
		t.Errorf("second button = %+v, want option_2/No", buttons[1].Reply)
	}
}

func TestWhatsAppCloudSender_SendRatingPrompt(t *testing.T) {
	var captured WhatsAppInteractiveMessage
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		okResponse(w)
	})

	err := sender.SendRatingPrompt(context.Background(), "919876543210")
	if err != nil {
		t.Fatalf("SendRatingPrompt() error = %v", err)
	}

	buttons := captured.Interactive.Action.Buttons
	if len(buttons) != 5 {
		t.Fatalf("got %d buttons, want 5", len(buttons))
	}
	for i, button := range buttons {
		want := "rating_" + string(rune('1'+i))
		if button.Reply.ID != want {
			t.Errorf("button %d id = %s, want %s", i, button.Reply.ID, want)
		}
	}
}

func TestWhatsAppCloudSender_SendCategoryList(t *testing.T) {
	var captured WhatsAppInteractiveMessage
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		okResponse(w)
	})

	categories := []string{"ROOMS", "QLINE", "OVERALL"}
	err := sender.SendCategoryList(context.Background(), "919876543210", categories)
	if err != nil {
		t.Fatalf("SendCategoryList() error = %v", err)
	}

	if captured.Interactive.Type != "list" {
		t.Errorf("interactive type = %s, want list", captured.Interactive.Type)
	}
	sections := captured.Interactive.Action.Sections
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	rows := sections[0].Rows
	if len(rows) != len(categories) {
		t.Fatalf("got %d rows, want %d", len(rows), len(categories))
	}
	for i, row := range rows {
		if row.ID != categories[i] || row.Title != categories[i] {
			t.Errorf("row %d = %+v, want id/title %s", i, row, categories[i])
		}
	}
}

func TestWhatsAppCloudSender_APIError(t *testing.T) {
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid token"}}`, http.StatusUnauthorized)
	})

	err := sender.SendText(context.Background(), "919876543210", "hello")
	if err == nil {
		t.Fatal("SendText() expected error on non-200 response")
	}
}
