package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/util"
)

// CreateJio creates a new active jio for the given creator. A custom jio must
// carry a non-empty title; built-in kinds fall back to their default title.
// Every jio is created active with a fixed 2 hour expiry window.
func (b *Bot) CreateJio(ctx context.Context, creator *models.User, kind models.JioKind, title, location string) (*models.Jio, error) {
	if creator == nil {
		return nil, models.ErrNotRegistered
	}
	if !models.IsValidJioKind(kind) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidJioKind, kind)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		if kind == models.JioKindCustom {
			return nil, models.ErrEmptyTitle
		}
		title = models.JioDefaultTitle(kind)
	}
	if len(title) > models.MaxJioTitleLength {
		return nil, models.ErrTitleTooLong
	}
	if runes := []rune(location); len(runes) > models.MaxLocationTextLength {
		// Truncate by runes so a multi-byte character is never split.
		location = string(runes[:models.MaxLocationTextLength])
	}

	now := time.Now()
	jio := models.Jio{
		ID:           util.GenerateJioID(),
		CreatorID:    creator.ID,
		Kind:         kind,
		Title:        title,
		LocationText: strings.TrimSpace(location),
		Status:       models.JioStatusActive,
		CreatedAt:    now,
		ExpiresAt:    now.Add(models.DefaultJioExpiry),
	}
	if err := b.store.CreateJio(jio); err != nil {
		slog.Error("CreateJio store write failed", "error", err, "creatorID", creator.ID, "kind", kind)
		return nil, fmt.Errorf("failed to create jio: %w", err)
	}
	slog.Info("jio created", "jioID", jio.ID, "creatorID", creator.ID, "kind", kind)
	return &jio, nil
}

// CancelJio cancels an active jio. Only the creator may cancel; a terminal
// jio stays terminal.
func (b *Bot) CancelJio(ctx context.Context, jioID, requesterID string) error {
	jio, err := b.store.GetJio(jioID)
	if err != nil {
		return fmt.Errorf("failed to load jio %s: %w", jioID, err)
	}
	if jio == nil {
		return fmt.Errorf("%w: %s", models.ErrJioNotFound, jioID)
	}
	if jio.CreatorID != requesterID {
		slog.Warn("cancel denied", "jioID", jioID, "requesterID", requesterID)
		return models.ErrNotCreator
	}
	if jio.Status.Terminal() {
		return fmt.Errorf("%w: status %s", models.ErrJioNotActive, jio.Status)
	}

	ok, err := b.store.UpdateJioStatus(jioID, models.JioStatusActive, models.JioStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel jio %s: %w", jioID, err)
	}
	if !ok {
		// Lost the race against the expiry sweep.
		return fmt.Errorf("%w: concurrent transition", models.ErrJioNotActive)
	}
	slog.Info("jio cancelled", "jioID", jioID)
	return nil
}

// RecordResponse upserts the responder's reaction to an active jio. A repeat
// call with a different kind overwrites the prior response; uniqueness comes
// from the store's conflict key, not an application pre-check.
func (b *Bot) RecordResponse(ctx context.Context, jioID, responderID string, kind models.ResponseKind) (*models.Jio, error) {
	if !models.IsValidResponseKind(kind) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidResponseKind, kind)
	}
	jio, err := b.store.GetJio(jioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load jio %s: %w", jioID, err)
	}
	if jio == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrJioNotFound, jioID)
	}
	if jio.Status != models.JioStatusActive {
		return nil, fmt.Errorf("%w: status %s", models.ErrJioNotActive, jio.Status)
	}

	err = b.store.UpsertJioResponse(models.JioResponse{
		JioID:       jioID,
		UserID:      responderID,
		Kind:        kind,
		RespondedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record response for jio %s: %w", jioID, err)
	}
	slog.Info("jio response recorded", "jioID", jioID, "responderID", responderID, "kind", kind)
	return jio, nil
}

// ListResponses returns the response summary for a jio, grouped for display.
func (b *Bot) ListResponses(ctx context.Context, jioID string) (models.ResponseSummary, error) {
	summary, err := b.store.ListJioResponses(jioID)
	if err != nil {
		return models.ResponseSummary{}, fmt.Errorf("failed to list responses for jio %s: %w", jioID, err)
	}
	return summary, nil
}
