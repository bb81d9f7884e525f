package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/freeliao/freeliao/internal/models"
)

// DeliveryResult records the outcome of one fanout delivery attempt. A nil
// Err means the recipient was notified and a receipt was recorded.
type DeliveryResult struct {
	UserID string
	ChatID string
	Err    error
}

// NotifyFriendsOfJio delivers a new jio to the creator's friends who are
// currently free or free_later. Delivery is per-recipient best-effort: one
// unreachable friend never aborts the rest, and only successful deliveries are
// recorded as receipts. Returns the number of successful deliveries.
func (b *Bot) NotifyFriendsOfJio(ctx context.Context, creator *models.User, jio *models.Jio) (int, error) {
	friends, err := b.store.FriendsWithStatus(creator.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve friends for fanout: %w", err)
	}

	var eligible []models.FriendStatus
	for _, f := range friends {
		if f.Notifiable() {
			eligible = append(eligible, f)
		}
	}
	if len(eligible) == 0 {
		slog.Info("jio fanout found no eligible friends", "jioID", jio.ID, "friends", len(friends))
		return 0, nil
	}

	body := jioFanoutMessage(creator.DisplayName, jio, time.Now())
	buttons := jioResponseButtons(jio.ID)

	delivered := 0
	for _, friend := range eligible {
		res := b.deliverJio(ctx, friend, jio, body, buttons)
		if res.Err != nil {
			slog.Warn("jio delivery failed", "jioID", jio.ID, "recipientID", res.UserID, "error", res.Err)
			continue
		}
		delivered++
	}
	slog.Info("jio fanout complete", "jioID", jio.ID, "eligible", len(eligible), "delivered", delivered)
	return delivered, nil
}

// deliverJio attempts delivery to one recipient and records the receipt on
// success. Failures are captured in the result, never propagated.
func (b *Bot) deliverJio(ctx context.Context, friend models.FriendStatus, jio *models.Jio, body string, buttons []models.Button) DeliveryResult {
	res := DeliveryResult{UserID: friend.UserID, ChatID: friend.ChatID}
	if err := b.msg.SendMessageWithButtons(ctx, friend.ChatID, body, buttons); err != nil {
		res.Err = err
		return res
	}
	err := b.store.AddJioInvite(models.JioInvite{
		JioID:      jio.ID,
		UserID:     friend.UserID,
		NotifiedAt: time.Now(),
	})
	if err != nil {
		// Delivery already happened; a lost receipt is audit-only.
		slog.Warn("failed to record jio invite receipt", "jioID", jio.ID, "recipientID", friend.UserID, "error", err)
	}
	return res
}

// NotifyCreatorOfResponse tells the jio creator that someone reacted.
// Declines are kept quiet; only positive responses reach the creator.
func (b *Bot) NotifyCreatorOfResponse(ctx context.Context, jio *models.Jio, responderName string, kind models.ResponseKind) {
	if kind == models.ResponseDeclined {
		return
	}
	creator, err := b.store.GetUserByID(jio.CreatorID)
	if err != nil || creator == nil {
		slog.Warn("could not resolve jio creator for response notification", "jioID", jio.ID, "error", err)
		return
	}

	display := models.ResponseDisplays[kind]
	body := fmt.Sprintf("%s %s %s your jio: %s %s",
		display.Emoji, responderName, display.Action, models.JioEmoji(jio.Kind), jio.Title)
	buttons := []models.Button{
		{Label: "👥 View responses", Data: models.ViewResponsesData(jio.ID)},
	}
	if err := b.msg.SendMessageWithButtons(ctx, creator.ChatID, body, buttons); err != nil {
		slog.Warn("creator response notification failed", "jioID", jio.ID, "error", err)
	}
}

// NotifyFriendRequest tells the target of a new friend request, with accept
// and decline controls attached.
func (b *Bot) NotifyFriendRequest(ctx context.Context, target *models.User, requester *models.User, friendshipID string) {
	body := fmt.Sprintf("👋 %s wants to be your friend on FreeLiao!", requester.DisplayName)
	buttons := []models.Button{
		{Label: "✅ Accept", Data: models.FriendData(true, friendshipID)},
		{Label: "❌ Decline", Data: models.FriendData(false, friendshipID)},
	}
	if err := b.msg.SendMessageWithButtons(ctx, target.ChatID, body, buttons); err != nil {
		slog.Warn("friend request notification failed", "friendshipID", friendshipID, "error", err)
	}
}
