package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/whatsapp"
)

func TestWhatsAppServiceValidateAndCanonicalizeRecipient(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())

	tests := []struct {
		name      string
		recipient string
		want      string
		wantErr   bool
	}{
		{name: "plain number", recipient: "6591234567", want: "6591234567"},
		{name: "e164 with plus", recipient: "+6591234567", want: "6591234567"},
		{name: "formatted number", recipient: "+65 9123-4567", want: "6591234567"},
		{name: "empty", recipient: "", wantErr: true},
		{name: "no digits", recipient: "kopi", wantErr: true},
		{name: "too short", recipient: "12345", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ValidateAndCanonicalizeRecipient(tt.recipient)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndCanonicalizeRecipient(%q) error = %v, wantErr %v", tt.recipient, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ValidateAndCanonicalizeRecipient(%q) = %q, want %q", tt.recipient, got, tt.want)
			}
		})
	}
}

func TestSendMessageWithButtonsRendersNumberedOptions(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)

	buttons := []models.Button{
		{Label: "🙋 I'm in!", Data: models.JioResponseData("joined", "j_1")},
		{Label: "🤔 Maybe", Data: models.JioResponseData("maybe", "j_1")},
	}
	err := svc.SendMessageWithButtons(context.Background(), "+6591234567", "Kopi anyone?", buttons)
	if err != nil {
		t.Fatalf("SendMessageWithButtons() error = %v", err)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mock.SentMessages))
	}
	body := mock.SentMessages[0].Body
	if !strings.Contains(body, "1. 🙋 I'm in!") || !strings.Contains(body, "2. 🤔 Maybe") {
		t.Errorf("rendered body missing numbered options:\n%s", body)
	}
	if !strings.Contains(body, "Reply with a number") {
		t.Errorf("rendered body missing reply hint:\n%s", body)
	}
}

func TestNumericReplyResolvesToCallback(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)

	buttons := []models.Button{
		{Label: "🙋 I'm in!", Data: "jio:joined:j_1"},
		{Label: "🤔 Maybe", Data: "jio:maybe:j_1"},
	}
	if err := svc.SendMessageWithButtons(context.Background(), "6591234567", "Kopi anyone?", buttons); err != nil {
		t.Fatalf("SendMessageWithButtons() error = %v", err)
	}

	evt := decodeChannelText(svc.keyboards, "6591234567", "2", time.Now().Unix())
	if evt.Kind != models.EventCallback {
		t.Fatalf("Kind = %s, want callback", evt.Kind)
	}
	if evt.Data != "jio:maybe:j_1" {
		t.Errorf("Data = %q, want jio:maybe:j_1", evt.Data)
	}

	// Out-of-range and non-numeric replies fall through to text decoding.
	evt = decodeChannelText(svc.keyboards, "6591234567", "9", time.Now().Unix())
	if evt.Kind != models.EventText {
		t.Errorf("out-of-range reply kind = %s, want text", evt.Kind)
	}
	evt = decodeChannelText(svc.keyboards, "6591234567", "/help", time.Now().Unix())
	if evt.Kind != models.EventCommand || evt.Command != "help" {
		t.Errorf("command reply = %+v, want /help command", evt)
	}

	// A recipient with no remembered buttons never gets callbacks.
	evt = decodeChannelText(svc.keyboards, "6500000000", "1", time.Now().Unix())
	if evt.Kind != models.EventText {
		t.Errorf("unknown recipient reply kind = %s, want text", evt.Kind)
	}
}

func TestPlainSendClearsRememberedButtons(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)

	buttons := []models.Button{{Label: "🙋 I'm in!", Data: "jio:joined:j_1"}}
	if err := svc.SendMessageWithButtons(context.Background(), "6591234567", "Kopi anyone?", buttons); err != nil {
		t.Fatalf("SendMessageWithButtons() error = %v", err)
	}
	if err := svc.SendMessage(context.Background(), "6591234567", "See you there"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	evt := decodeChannelText(svc.keyboards, "6591234567", "1", time.Now().Unix())
	if evt.Kind != models.EventText {
		t.Errorf("stale numeric reply kind = %s, want text after plain send", evt.Kind)
	}
}

func TestSendAfterStopReturnsError(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	err := svc.SendMessage(context.Background(), "6591234567", "hello")
	if err != ErrServiceStopped {
		t.Errorf("SendMessage() after Stop = %v, want ErrServiceStopped", err)
	}
	// Stop is idempotent.
	if err := svc.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
