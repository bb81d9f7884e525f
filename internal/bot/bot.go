// Package bot implements the conversational core of FreeLiao: the command and
// callback router, the jio lifecycle, and the fanout notifier.
//
// Events for different conversations are handled concurrently; within one
// conversation the session manager serializes state access per key. No handler
// retries a failed store write or delivery; each error is scoped to the single
// event being handled.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/freeliao/freeliao/internal/messaging"
	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/session"
	"github.com/freeliao/freeliao/internal/store"
)

// Bot wires the store, the session manager and the messaging channel together.
// All dependencies are injected; there is no ambient global client.
type Bot struct {
	store    store.Store
	sessions *session.Manager
	msg      messaging.Service
}

// New creates a Bot with the given collaborators.
func New(st store.Store, sessions *session.Manager, svc messaging.Service) *Bot {
	return &Bot{store: st, sessions: sessions, msg: svc}
}

// Run consumes inbound events until the channel closes or the context is
// cancelled. Each event is handled in its own goroutine.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("Bot event loop starting")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Bot event loop stopping", "reason", ctx.Err())
			return ctx.Err()
		case ev, ok := <-b.msg.Events():
			if !ok {
				slog.Info("Bot event channel closed, stopping")
				return nil
			}
			go b.HandleEvent(ctx, ev)
		}
	}
}

// reply sends a plain text message back to the conversation, logging failures.
func (b *Bot) reply(ctx context.Context, chatID, body string) {
	if err := b.msg.SendMessage(ctx, chatID, body); err != nil {
		slog.Error("Bot reply failed", "error", err, "chatID", chatID)
	}
}

// replyWithButtons sends a buttoned message back to the conversation.
func (b *Bot) replyWithButtons(ctx context.Context, chatID, body string, buttons []models.Button) {
	if err := b.msg.SendMessageWithButtons(ctx, chatID, body, buttons); err != nil {
		slog.Error("Bot reply with buttons failed", "error", err, "chatID", chatID)
	}
}

// userError maps the error taxonomy to a generic user-facing message. Logs
// carry the detail; users only ever see the category.
func userError(err error) string {
	switch {
	case errors.Is(err, models.ErrNotRegistered):
		return msgNotRegistered
	case errors.Is(err, models.ErrNotCreator):
		return "Only the person who sent this jio can do that."
	case errors.Is(err, models.ErrJioNotActive), errors.Is(err, models.ErrJioNotFound):
		return "This jio has expired or is no longer available."
	case errors.Is(err, models.ErrEmptyTitle):
		return "Your jio needs a title! Tell me what you wanna do."
	case errors.Is(err, models.ErrTitleTooLong):
		return "That title is a bit long. Keep it under 100 characters!"
	case errors.Is(err, models.ErrUnparseableTime):
		return msgTimeHelp
	case errors.Is(err, models.ErrInvalidJioKind), errors.Is(err, models.ErrInvalidResponseKind):
		return "Hmm, I don't recognize that one. Try /jio to see the options."
	default:
		return "Something went wrong, try again in a bit."
	}
}
