package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/timeparse"
	"github.com/freeliao/freeliao/internal/util"
)

// jioAliases maps command-line activity words to built-in jio kinds.
var jioAliases = map[string]models.JioKind{
	"kopi":   models.JioKindKopi,
	"coffee": models.JioKindKopi,
	"makan":  models.JioKindMakan,
	"food":   models.JioKindMakan,
	"eat":    models.JioKindMakan,
	"study":  models.JioKindStudy,
	"game":   models.JioKindGame,
	"games":  models.JioKindGame,
	"movie":  models.JioKindMovie,
	"chill":  models.JioKindChill,
}

// handleCommand dispatches a slash command. Only /start and /help work
// without a bound identity.
func (b *Bot) handleCommand(ctx context.Context, ev models.InboundEvent, user *models.User) {
	switch ev.Command {
	case "start":
		b.handleStart(ctx, ev, user)
		return
	case "help":
		b.reply(ctx, ev.ChatID, msgHelp)
		return
	}

	if user == nil {
		b.reply(ctx, ev.ChatID, msgNotRegistered)
		return
	}

	switch ev.Command {
	case "free":
		b.handleFree(ctx, ev, user)
	case "busy":
		b.handleBusy(ctx, ev, user)
	case "whofree":
		b.handleWhoFree(ctx, ev.ChatID, user)
	case "friends":
		b.handleFriends(ctx, ev, user)
	case "jio":
		b.handleJio(ctx, ev, user)
	case "kopi":
		b.quickJio(ctx, ev.ChatID, user, models.JioKindKopi, "")
	case "makan":
		b.quickJio(ctx, ev.ChatID, user, models.JioKindMakan, "")
	default:
		b.reply(ctx, ev.ChatID, "Unknown command. Send /help to see what I can do.")
	}
}

// handleStart registers a new user or welcomes an existing one back. Optional
// trailing text sets the display name.
func (b *Bot) handleStart(ctx context.Context, ev models.InboundEvent, user *models.User) {
	name := strings.TrimSpace(ev.Args)

	if user != nil {
		if name != "" && name != user.DisplayName {
			if err := b.store.UpdateUserHandle(user.ID, user.Handle, name); err != nil {
				slog.Error("display name refresh failed", "error", err, "userID", user.ID)
			} else {
				user.DisplayName = name
			}
		}
		b.reply(ctx, ev.ChatID, welcomeMessage(user, false))
		return
	}

	if name == "" {
		name = defaultDisplayName(ev.ChatID)
	}
	newUser := models.User{
		ID:          util.GenerateUserID(),
		ChatID:      ev.ChatID,
		DisplayName: name,
		InviteCode:  util.GenerateInviteCode(),
		CreatedAt:   time.Now(),
	}
	if err := b.store.CreateUser(newUser); err != nil {
		slog.Error("user registration failed", "error", err, "chatID", ev.ChatID)
		b.reply(ctx, ev.ChatID, userError(err))
		return
	}
	b.sessions.BindUser(ev.ChatID, newUser.ID)
	slog.Info("user registered", "userID", newUser.ID)
	b.reply(ctx, ev.ChatID, welcomeMessage(&newUser, true))
}

// defaultDisplayName derives a placeholder name from the chat identity.
func defaultDisplayName(chatID string) string {
	if len(chatID) > 4 {
		return "Friend " + chatID[len(chatID)-4:]
	}
	return "Friend " + chatID
}

// handleFree marks the user free. With a time phrase the status is set
// directly; without one the preset duration buttons are offered.
func (b *Bot) handleFree(ctx context.Context, ev models.InboundEvent, user *models.User) {
	phrase := strings.TrimSpace(ev.Args)
	if phrase == "" {
		b.replyWithButtons(ctx, ev.ChatID, "How long are you free?", freeTimeButtons())
		return
	}

	parsed := timeparse.Parse(phrase, time.Now())
	if parsed.Until == nil {
		b.reply(ctx, ev.ChatID, msgTimeHelp)
		return
	}
	b.setFree(ctx, ev.ChatID, user, parsed)
}

// setFree persists a free status and offers the vibe selection.
func (b *Bot) setFree(ctx context.Context, chatID string, user *models.User, parsed timeparse.Parsed) {
	err := b.store.SaveUserStatus(models.UserStatus{
		UserID:    user.ID,
		Kind:      models.StatusFree,
		FreeUntil: parsed.Until,
		ExpiresAt: parsed.Until,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("free status write failed", "error", err, "userID", user.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	body := fmt.Sprintf("🟢 You're free %s! Your friends can see it.\n\nWhat's the vibe?", parsed.DisplayText)
	b.replyWithButtons(ctx, chatID, body, vibeButtons())
}

// handleBusy marks the user busy, replacing any free status.
func (b *Bot) handleBusy(ctx context.Context, ev models.InboundEvent, user *models.User) {
	err := b.store.SaveUserStatus(models.UserStatus{
		UserID:    user.ID,
		Kind:      models.StatusBusy,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("busy status write failed", "error", err, "userID", user.ID)
		b.reply(ctx, ev.ChatID, userError(err))
		return
	}
	b.reply(ctx, ev.ChatID, "🔴 Got it, you're busy. I'll keep things quiet.")
}

// handleWhoFree renders the friend availability listing.
func (b *Bot) handleWhoFree(ctx context.Context, chatID string, user *models.User) {
	friends, err := b.store.FriendsWithStatus(user.ID)
	if err != nil {
		slog.Error("whofree query failed", "error", err, "userID", user.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	buttons := []models.Button{
		{Label: "🔄 Refresh", Data: models.RefreshData("whofree")},
		{Label: "☕ Jio kopi", Data: models.QuickJioData(models.JioKindKopi)},
		{Label: "🍜 Jio makan", Data: models.QuickJioData(models.JioKindMakan)},
	}
	b.replyWithButtons(ctx, chatID, whoFreeMessage(friends, time.Now()), buttons)
}

// handleFriends shows the invite code and pending requests, or sends a friend
// request when called with an invite code.
func (b *Bot) handleFriends(ctx context.Context, ev models.InboundEvent, user *models.User) {
	code := strings.ToLower(strings.TrimSpace(ev.Args))
	if code != "" {
		b.sendFriendRequest(ctx, ev.ChatID, user, code)
		return
	}

	pending, err := b.store.PendingFriendRequests(user.ID)
	if err != nil {
		slog.Error("pending requests query failed", "error", err, "userID", user.ID)
		b.reply(ctx, ev.ChatID, userError(err))
		return
	}

	body := fmt.Sprintf("Your invite code: %s\n\nFriends add you with /friends %s", user.InviteCode, user.InviteCode)
	b.reply(ctx, ev.ChatID, body)

	for _, req := range pending {
		requester, err := b.store.GetUserByID(req.UserID)
		if err != nil || requester == nil {
			slog.Warn("could not resolve friend requester", "friendshipID", req.ID, "error", err)
			continue
		}
		b.NotifyFriendRequest(ctx, user, requester, req.ID)
	}
}

// sendFriendRequest creates a pending friendship toward the invite code's
// owner and notifies them.
func (b *Bot) sendFriendRequest(ctx context.Context, chatID string, user *models.User, code string) {
	target, err := b.store.GetUserByInviteCode(code)
	if err != nil {
		slog.Error("invite code lookup failed", "error", err, "code", code)
		b.reply(ctx, chatID, userError(err))
		return
	}
	if target == nil {
		b.reply(ctx, chatID, "That invite code doesn't match anyone. Double-check and try again!")
		return
	}
	if target.ID == user.ID {
		b.reply(ctx, chatID, "That's your own code 😅 Share it with a friend instead!")
		return
	}

	existing, err := b.store.GetFriendshipBetween(user.ID, target.ID)
	if err != nil {
		slog.Error("friendship lookup failed", "error", err, "userID", user.ID, "targetID", target.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	if existing != nil {
		if existing.Status == models.FriendshipAccepted {
			b.reply(ctx, chatID, fmt.Sprintf("You and %s are already friends!", target.DisplayName))
		} else {
			b.reply(ctx, chatID, "There's already a pending request between you two.")
		}
		return
	}

	friendship := models.Friendship{
		ID:        util.GenerateFriendshipID(),
		UserID:    user.ID,
		FriendID:  target.ID,
		Status:    models.FriendshipPending,
		CreatedAt: time.Now(),
	}
	if err := b.store.CreateFriendship(friendship); err != nil {
		slog.Error("friendship create failed", "error", err, "userID", user.ID, "targetID", target.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	b.NotifyFriendRequest(ctx, target, user, friendship.ID)
	b.reply(ctx, chatID, fmt.Sprintf("Friend request sent to %s! 📨", target.DisplayName))
}

// handleJio starts a jio. A recognized activity word creates it immediately;
// any other trailing text becomes a custom jio title; no text offers the kind
// selection.
func (b *Bot) handleJio(ctx context.Context, ev models.InboundEvent, user *models.User) {
	args := strings.TrimSpace(ev.Args)
	if args == "" {
		b.replyWithButtons(ctx, ev.ChatID, "What's the plan? 🎯", jioKindButtons())
		return
	}
	if kind, ok := jioAliases[strings.ToLower(args)]; ok {
		b.quickJio(ctx, ev.ChatID, user, kind, "")
		return
	}
	b.quickJio(ctx, ev.ChatID, user, models.JioKindCustom, args)
}

// quickJio creates a jio in one shot (no location step) and fans it out.
func (b *Bot) quickJio(ctx context.Context, chatID string, user *models.User, kind models.JioKind, title string) {
	jio, err := b.CreateJio(ctx, user, kind, title, "")
	if err != nil {
		slog.Error("quick jio create failed", "error", err, "userID", user.ID, "kind", kind)
		b.reply(ctx, chatID, userError(err))
		return
	}
	delivered, err := b.NotifyFriendsOfJio(ctx, user, jio)
	if err != nil {
		slog.Error("quick jio fanout failed", "error", err, "jioID", jio.ID)
		b.reply(ctx, chatID, userError(err))
		return
	}
	b.replyWithButtons(ctx, chatID, jioCreatedMessage(jio, delivered), creatorJioButtons(jio.ID))
}
