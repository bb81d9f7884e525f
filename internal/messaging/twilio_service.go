package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/twiliowhatsapp"
)

// TwilioService implements the Service interface using the Twilio API.
// Inbound messages arrive through the webhook handler rather than a live
// connection, so Start is a no-op.
type TwilioService struct {
	client    twiliowhatsapp.TwilioWhatsAppSender
	keyboards *keyboardMemory
	eventsCh  chan models.InboundEvent
	done      chan struct{}
	mu        sync.RWMutex
	stopped   bool
}

// NewTwilioService creates a new TwilioService wrapping the given sender.
func NewTwilioService(client twiliowhatsapp.TwilioWhatsAppSender) *TwilioService {
	return &TwilioService{
		client:    client,
		keyboards: newKeyboardMemory(),
		eventsCh:  make(chan models.InboundEvent, DefaultChannelBufferSize),
		done:      make(chan struct{}),
	}
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a WhatsApp phone number.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := canonicalizePhoneNumber(recipient)
	if err != nil {
		return "", err
	}
	if recipient != canonical {
		slog.Debug("TwilioService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start is a no-op for Twilio (inbound arrives via webhook).
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes channels and stops the service.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.eventsCh)
	}()

	return nil
}

// SendMessage sends a plain text message via Twilio.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	return s.SendMessageWithButtons(ctx, to, body, nil)
}

// SendMessageWithButtons sends a message with buttons rendered as numbered
// options, remembering them so webhook replies with a bare number resolve to
// callback payloads.
func (s *TwilioService) SendMessageWithButtons(ctx context.Context, to string, body string, buttons []models.Button) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService SendMessageWithButtons validation error", "error", err, "to", to)
		return err
	}

	rendered := renderButtons(body, buttons)
	if err := s.client.SendMessage(ctx, canonicalTo, rendered); err != nil {
		return err
	}
	s.keyboards.remember(canonicalTo, buttons)
	slog.Debug("TwilioService message sent", "to", canonicalTo, "buttons", len(buttons))
	return nil
}

// Events returns a channel of decoded inbound events.
func (s *TwilioService) Events() <-chan models.InboundEvent {
	return s.eventsCh
}

// WebhookHandler handles inbound Twilio webhook requests. It decodes incoming
// messages and emits them as InboundEvents on the Events() channel.
func (s *TwilioService) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse Twilio webhook form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")

	if from == "" || body == "" {
		slog.Warn("Twilio webhook missing fields", "from", from)
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	canonicalFrom, err := s.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		slog.Warn("Twilio webhook sender rejected", "error", err, "from", from)
		http.Error(w, "Invalid sender", http.StatusBadRequest)
		return
	}

	event := decodeChannelText(s.keyboards, canonicalFrom, body, time.Now().Unix())
	slog.Info("Inbound WhatsApp message from Twilio", "from", canonicalFrom, "kind", event.Kind)
	s.safeEmit(event)

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *TwilioService) safeEmit(event models.InboundEvent) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("TwilioService dropping inbound event (service stopped)", "from", event.ChatID)
		return
	}

	select {
	case s.eventsCh <- event:
		slog.Debug("TwilioService emitted inbound event", "from", event.ChatID)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService events channel blocked, dropping event", "from", event.ChatID)
	}
}
