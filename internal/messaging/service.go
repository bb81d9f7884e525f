// Package messaging defines the pluggable message delivery abstraction used by
// the bot layer, with WhatsApp (Whatsmeow) and Twilio backed implementations.
//
// Neither channel supports structured callback buttons, so outbound buttons are
// rendered as numbered options appended to the message body. Each service
// remembers the last set of buttons shown per recipient; a bare-number reply is
// translated back into the corresponding callback payload before it reaches the
// bot.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/freeliao/freeliao/internal/models"
)

// Constants for messaging service configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the inbound event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned by send operations after Stop.
var ErrServiceStopped = errors.New("messaging service stopped")

// phoneNumberRegex matches everything that is not a digit.
var phoneNumberRegex = regexp.MustCompile(`\D`)

// Service defines a pluggable message delivery abstraction.
// It supports sending plain and buttoned messages, and provides a channel of
// decoded inbound events.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// identifier. This allows each service to implement its own recipient
	// validation rules.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a plain text message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// SendMessageWithButtons sends a message with response controls attached.
	// The buttons replace any previously remembered buttons for the recipient.
	SendMessageWithButtons(ctx context.Context, to string, body string, buttons []models.Button) error

	// Start begins any background processing (e.g., polling for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Events returns a channel of decoded inbound events.
	Events() <-chan models.InboundEvent
}

// canonicalizePhoneNumber strips non-digits and requires at least 6 digits.
func canonicalizePhoneNumber(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}
	return canonical, nil
}

// renderButtons appends buttons to a message body as a numbered option list.
func renderButtons(body string, buttons []models.Button) string {
	if len(buttons) == 0 {
		return body
	}
	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	for i, btn := range buttons {
		fmt.Fprintf(&b, "\n%d. %s", i+1, btn.Label)
	}
	b.WriteString("\n\nReply with a number to choose.")
	return b.String()
}

// keyboardMemory remembers the last buttons shown to each recipient so that a
// bare-number reply can be mapped back to its callback payload.
type keyboardMemory struct {
	mu      sync.Mutex
	buttons map[string][]models.Button
}

func newKeyboardMemory() *keyboardMemory {
	return &keyboardMemory{buttons: make(map[string][]models.Button)}
}

// remember stores the current buttons for a recipient, replacing earlier ones.
// An empty set clears the memory so stale numbers stop resolving.
func (k *keyboardMemory) remember(recipient string, buttons []models.Button) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(buttons) == 0 {
		delete(k.buttons, recipient)
		return
	}
	k.buttons[recipient] = buttons
}

// resolve maps a bare-number reply to the remembered button's callback payload.
// The second return is false when the text is not a number or out of range.
func (k *keyboardMemory) resolve(recipient, text string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return "", false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	buttons := k.buttons[recipient]
	if n < 1 || n > len(buttons) {
		return "", false
	}
	return buttons[n-1].Data, true
}

// decodeChannelText turns a raw inbound text into an InboundEvent, consulting
// the keyboard memory first so numeric replies become callback events.
func decodeChannelText(keyboards *keyboardMemory, chatID, text string, ts int64) models.InboundEvent {
	if data, ok := keyboards.resolve(chatID, text); ok {
		return models.InboundEvent{ChatID: chatID, Kind: models.EventCallback, Data: data, Time: ts}
	}
	return models.DecodeInbound(chatID, text, ts)
}
