package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/session"
)

// HandleEvent is the single dispatch entry point for inbound events. Commands
// interrupt any in-progress multi-step flow; free text is consumed by the
// awaited-input handler when a marker is set, otherwise it gets a gentle hint.
func (b *Bot) HandleEvent(ctx context.Context, ev models.InboundEvent) {
	user := b.resolveUser(ev.ChatID)
	st := b.sessions.Get(ev.ChatID)
	slog.Debug("routing inbound event", "chatID", ev.ChatID, "kind", ev.Kind, "bound", user != nil, "awaiting", st.Awaiting)

	switch ev.Kind {
	case models.EventCallback:
		b.handleCallback(ctx, ev, user)
	case models.EventCommand:
		// Any command abandons an in-progress flow; the draft is discarded.
		if st.Awaiting != session.AwaitingNone || st.Draft != nil {
			slog.Debug("command interrupted flow, abandoning draft", "chatID", ev.ChatID, "command", ev.Command)
			b.sessions.AbandonFlow(ev.ChatID)
		}
		b.handleCommand(ctx, ev, user)
	case models.EventText:
		if st.Awaiting != session.AwaitingNone {
			// The marker is cleared before handling, success or failure alike,
			// so a misstep never leaves the conversation stuck.
			b.sessions.ClearAwaiting(ev.ChatID)
			b.consumeAwaitedInput(ctx, ev, user, st)
			return
		}
		b.reply(ctx, ev.ChatID, "Not sure what you mean 🤔 Send /help to see what I can do.")
	}
}

// resolveUser returns the registered user bound to a conversation, or nil.
// The session caches the binding after the first store lookup.
func (b *Bot) resolveUser(chatID string) *models.User {
	st := b.sessions.Get(chatID)
	if st.UserID != "" {
		user, err := b.store.GetUserByID(st.UserID)
		if err != nil {
			slog.Error("failed to load bound user", "error", err, "chatID", chatID, "userID", st.UserID)
			return nil
		}
		return user
	}

	user, err := b.store.GetUserByChatID(chatID)
	if err != nil {
		slog.Error("failed to look up user by chat", "error", err, "chatID", chatID)
		return nil
	}
	if user != nil {
		b.sessions.BindUser(chatID, user.ID)
	}
	return user
}

// consumeAwaitedInput handles a free-text message that answers an earlier
// prompt. The awaiting marker has already been cleared by the router.
func (b *Bot) consumeAwaitedInput(ctx context.Context, ev models.InboundEvent, user *models.User, st session.State) {
	if user == nil {
		b.reply(ctx, ev.ChatID, msgNotRegistered)
		return
	}
	text := strings.TrimSpace(ev.Text)

	switch st.Awaiting {
	case session.AwaitingVibe:
		if len(text) > models.MaxVibeTextLength {
			b.reply(ctx, ev.ChatID, "Keep the vibe short, under 100 characters!")
			return
		}
		if err := b.store.UpdateVibe(user.ID, text); err != nil {
			slog.Error("vibe update failed", "error", err, "userID", user.ID)
			b.reply(ctx, ev.ChatID, userError(err))
			return
		}
		b.reply(ctx, ev.ChatID, "Vibe set: "+text+" ✨")

	case session.AwaitingJioTitle:
		if st.Draft == nil {
			b.reply(ctx, ev.ChatID, "Looks like that jio flow expired. Start again with /jio!")
			return
		}
		if len(text) > models.MaxJioTitleLength {
			b.reply(ctx, ev.ChatID, userError(models.ErrTitleTooLong))
			return
		}
		draft := *st.Draft
		draft.Title = text
		b.sessions.SetDraft(ev.ChatID, draft)
		b.sessions.SetAwaiting(ev.ChatID, session.AwaitingJioLocation)
		b.replyWithButtons(ctx, ev.ChatID, "Nice! Where at? Pick one or type a place:", jioLocationButtons())

	case session.AwaitingJioLocation:
		if st.Draft == nil {
			b.reply(ctx, ev.ChatID, "Looks like that jio flow expired. Start again with /jio!")
			return
		}
		draft := *st.Draft
		draft.Location = text
		b.finalizeJioDraft(ctx, ev.ChatID, user, draft)

	default:
		slog.Warn("awaited input with unknown marker", "chatID", ev.ChatID, "awaiting", st.Awaiting)
		b.reply(ctx, ev.ChatID, "Not sure what you mean 🤔 Send /help to see what I can do.")
	}
}

// finalizeJioDraft creates the jio from an accumulated draft, fans it out and
// reports the delivery count. The draft is discarded regardless of outcome.
func (b *Bot) finalizeJioDraft(ctx context.Context, chatID string, user *models.User, draft session.DraftJio) {
	b.sessions.AbandonFlow(chatID)

	jio, err := b.CreateJio(ctx, user, draft.Kind, draft.Title, draft.Location)
	if err != nil {
		slog.Error("jio draft finalization failed", "error", err, "userID", user.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}

	delivered, err := b.NotifyFriendsOfJio(ctx, user, jio)
	if err != nil {
		slog.Error("jio fanout failed", "error", err, "jioID", jio.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	b.replyWithButtons(ctx, chatID, jioCreatedMessage(jio, delivered), creatorJioButtons(jio.ID))
}

// creatorJioButtons are the controls shown to a creator after sending a jio.
func creatorJioButtons(jioID string) []models.Button {
	return []models.Button{
		{Label: "👥 View responses", Data: models.ViewResponsesData(jioID)},
		{Label: "🚫 Cancel jio", Data: models.CancelJioData(jioID)},
	}
}
