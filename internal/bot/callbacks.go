package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/session"
	"github.com/freeliao/freeliao/internal/timeparse"
)

const msgUnknownAction = "Hmm, that button doesn't do anything anymore."

// handleCallback decodes a button-press payload once at the boundary and
// matches the closed set of callback kinds exhaustively. Unknown payloads are
// acknowledged and logged; they never propagate.
func (b *Bot) handleCallback(ctx context.Context, ev models.InboundEvent, user *models.User) {
	cb, err := models.ParseCallback(ev.Data)
	if err != nil {
		slog.Warn("unknown callback payload", "chatID", ev.ChatID, "data", ev.Data)
		b.reply(ctx, ev.ChatID, msgUnknownAction)
		return
	}
	if user == nil {
		b.reply(ctx, ev.ChatID, msgNotRegistered)
		return
	}

	switch cb.Kind {
	case models.CallbackJioResponse:
		b.handleJioResponse(ctx, ev.ChatID, user, cb)
	case models.CallbackVibe:
		b.handleVibeSelection(ctx, ev.ChatID, user, cb)
	case models.CallbackFreeTime:
		b.handleFreeTimeSelection(ctx, ev.ChatID, user, cb)
	case models.CallbackJioKind:
		b.handleJioKindSelection(ctx, ev.ChatID, user, cb)
	case models.CallbackJioLocation:
		b.handleJioLocationSelection(ctx, ev.ChatID, user, cb)
	case models.CallbackQuickJio:
		if !models.IsValidJioKind(cb.JioKind) || cb.JioKind == models.JioKindCustom {
			b.reply(ctx, ev.ChatID, msgUnknownAction)
			return
		}
		b.quickJio(ctx, ev.ChatID, user, cb.JioKind, "")
	case models.CallbackRefresh:
		if cb.Target != "whofree" {
			b.reply(ctx, ev.ChatID, msgUnknownAction)
			return
		}
		b.handleWhoFree(ctx, ev.ChatID, user)
	case models.CallbackFriend:
		b.handleFriendDecision(ctx, ev.ChatID, user, cb)
	case models.CallbackMenu:
		b.handleMenuSelection(ctx, ev.ChatID, user, cb)
	case models.CallbackCancelJio:
		b.handleCancelJio(ctx, ev.ChatID, user, cb)
	case models.CallbackViewResponses:
		b.handleViewResponses(ctx, ev.ChatID, user, cb)
	default:
		slog.Warn("unhandled callback kind", "kind", cb.Kind)
		b.reply(ctx, ev.ChatID, msgUnknownAction)
	}
}

// handleJioResponse records a reaction to a jio and tells the creator about
// positive ones.
func (b *Bot) handleJioResponse(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	jio, err := b.RecordResponse(ctx, cb.JioID, user.ID, cb.Response)
	if err != nil {
		slog.Warn("jio response rejected", "jioID", cb.JioID, "userID", user.ID, "error", err)
		b.reply(ctx, chatID, userError(err))
		return
	}

	switch cb.Response {
	case models.ResponseJoined:
		b.reply(ctx, chatID, fmt.Sprintf("🙋 You're in for %s!", jio.Title))
	case models.ResponseMaybe:
		b.reply(ctx, chatID, "🤔 Noted as a maybe. You can change your mind anytime!")
	case models.ResponseDeclined:
		b.reply(ctx, chatID, "😢 No worries, next time!")
	case models.ResponseInterested:
		b.reply(ctx, chatID, "👀 Marked as interested!")
	}
	b.NotifyCreatorOfResponse(ctx, jio, user.DisplayName, cb.Response)
}

// handleVibeSelection stores a predefined vibe or starts the custom vibe flow.
func (b *Bot) handleVibeSelection(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	switch cb.VibeCode {
	case "skip":
		b.reply(ctx, chatID, "No vibe set. You're all good! ✌️")
		return
	case "custom":
		b.sessions.SetAwaiting(chatID, session.AwaitingVibe)
		b.reply(ctx, chatID, "Tell me the vibe in a few words:")
		return
	}

	text, ok := models.VibeTexts[cb.VibeCode]
	if !ok {
		slog.Warn("unknown vibe code", "code", cb.VibeCode)
		b.reply(ctx, chatID, msgUnknownAction)
		return
	}
	if err := b.store.UpdateVibe(user.ID, text); err != nil {
		slog.Error("vibe update failed", "error", err, "userID", user.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	b.reply(ctx, chatID, "Vibe set: "+text+" ✨")
}

// handleFreeTimeSelection maps a preset duration button to the same parse
// path as typed input, keeping one interpretation of time phrases.
func (b *Bot) handleFreeTimeSelection(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	phrase, ok := freeTimePhrases[cb.TimeCode]
	if !ok {
		slog.Warn("unknown free-time code", "code", cb.TimeCode)
		b.reply(ctx, chatID, msgUnknownAction)
		return
	}
	parsed := timeparse.Parse(phrase, time.Now())
	if parsed.Until == nil {
		slog.Error("preset free-time phrase failed to parse", "phrase", phrase)
		b.reply(ctx, chatID, userError(models.ErrUnparseableTime))
		return
	}
	b.setFree(ctx, chatID, user, parsed)
}

// handleJioKindSelection is the first hop of the multi-step jio flow. Custom
// jios capture a title next; built-in kinds go straight to location.
func (b *Bot) handleJioKindSelection(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	if !models.IsValidJioKind(cb.JioKind) {
		slog.Warn("unknown jio kind selection", "kind", cb.JioKind)
		b.reply(ctx, chatID, msgUnknownAction)
		return
	}

	if cb.JioKind == models.JioKindCustom {
		b.sessions.SetDraft(chatID, session.DraftJio{Kind: models.JioKindCustom})
		b.sessions.SetAwaiting(chatID, session.AwaitingJioTitle)
		b.reply(ctx, chatID, "What do you wanna do? Give your jio a title:")
		return
	}

	b.sessions.SetDraft(chatID, session.DraftJio{
		Kind:  cb.JioKind,
		Title: models.JioDefaultTitle(cb.JioKind),
	})
	b.sessions.SetAwaiting(chatID, session.AwaitingJioLocation)
	b.replyWithButtons(ctx, chatID, "Where at? Pick one or type a place:", jioLocationButtons())
}

// handleJioLocationSelection is the final hop: a fixed location choice
// completes the draft and triggers creation and fanout.
func (b *Bot) handleJioLocationSelection(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	st := b.sessions.Get(chatID)
	if st.Draft == nil {
		b.reply(ctx, chatID, "Looks like that jio flow expired. Start again with /jio!")
		return
	}
	location, ok := jioLocationTexts[cb.Location]
	if !ok {
		slog.Warn("unknown jio location code", "code", cb.Location)
		b.reply(ctx, chatID, msgUnknownAction)
		return
	}

	draft := *st.Draft
	draft.Location = location
	b.finalizeJioDraft(ctx, chatID, user, draft)
}

// handleFriendDecision accepts or declines a pending friend request. Only the
// request target can act; the store's conditional update enforces it.
func (b *Bot) handleFriendDecision(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	if !cb.Accept {
		if err := b.store.DeleteFriendship(cb.FriendshipID, user.ID); err != nil {
			slog.Error("friend decline failed", "error", err, "friendshipID", cb.FriendshipID)
			b.reply(ctx, chatID, userError(err))
			return
		}
		b.reply(ctx, chatID, "Request declined.")
		return
	}

	friendship, err := b.store.AcceptFriendship(cb.FriendshipID, user.ID)
	if err != nil {
		slog.Error("friend accept failed", "error", err, "friendshipID", cb.FriendshipID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	if friendship == nil {
		b.reply(ctx, chatID, "That request is no longer available.")
		return
	}

	requester, err := b.store.GetUserByID(friendship.UserID)
	if err != nil || requester == nil {
		slog.Warn("could not resolve accepted requester", "friendshipID", friendship.ID, "error", err)
		b.reply(ctx, chatID, "You've got a new friend! 🎉")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("You and %s are now friends! 🎉", requester.DisplayName))
	b.reply(ctx, requester.ChatID, fmt.Sprintf("🎉 %s accepted your friend request!", user.DisplayName))
}

// handleMenuSelection routes menu navigation buttons to their commands.
func (b *Bot) handleMenuSelection(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	switch cb.Target {
	case "whofree":
		b.handleWhoFree(ctx, chatID, user)
	case "free":
		b.replyWithButtons(ctx, chatID, "How long are you free?", freeTimeButtons())
	case "jio":
		b.replyWithButtons(ctx, chatID, "What's the plan? 🎯", jioKindButtons())
	default:
		slog.Warn("unknown menu target", "target", cb.Target)
		b.reply(ctx, chatID, msgUnknownAction)
	}
}

// handleCancelJio cancels the user's own jio. The error taxonomy distinguishes
// cause for logging; the user sees one generic denial.
func (b *Bot) handleCancelJio(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	if err := b.CancelJio(ctx, cb.JioID, user.ID); err != nil {
		slog.Warn("jio cancel rejected", "jioID", cb.JioID, "userID", user.ID, "error", err)
		b.reply(ctx, chatID, "Couldn't cancel that jio.")
		return
	}
	b.reply(ctx, chatID, "🚫 Jio cancelled. Your friends won't be able to respond anymore.")
}

// handleViewResponses shows the creator who has responded so far.
func (b *Bot) handleViewResponses(ctx context.Context, chatID string, user *models.User, cb models.Callback) {
	jio, err := b.store.GetJio(cb.JioID)
	if err != nil {
		slog.Error("jio load failed", "error", err, "jioID", cb.JioID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	if jio == nil {
		b.reply(ctx, chatID, userError(models.ErrJioNotFound))
		return
	}
	if jio.CreatorID != user.ID {
		b.reply(ctx, chatID, userError(models.ErrNotCreator))
		return
	}

	summary, err := b.ListResponses(ctx, cb.JioID)
	if err != nil {
		b.reply(ctx, chatID, userError(err))
		return
	}
	b.reply(ctx, chatID, responsesSummaryMessage(jio, summary))
}
