package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/employee-console/internal/core/events"
	"github.com/frahmantamala/employee-console/internal/employee"
)

type PictureUpdater interface {
	UpdateProfilePicture(ctx context.Context, token, userID, url string) (*employee.User, string, error)
}

// EventHandler keeps the backend's profilePictureURL in step with profile-picture uploads.
type EventHandler struct {
	pictures PictureUpdater
	logger   *slog.Logger
}

func NewEventHandler(pictures PictureUpdater, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		pictures: pictures,
		logger:   logger,
	}
}

func (h *EventHandler) HandleUploadCompleted(ctx context.Context, event events.Event) error {
	uploaded, ok := event.(*events.UploadCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for upload completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected UploadCompletedEvent, got %T", event)
	}
	if uploaded.Kind != events.UploadKindProfilePicture {
		return nil
	}

	if _, _, err := h.pictures.UpdateProfilePicture(ctx, uploaded.Token, uploaded.UserID, uploaded.URL); err != nil {
		h.logger.Error("failed to point profile at uploaded picture",
			"user_id", uploaded.UserID,
			"key", uploaded.Key,
			"event_id", uploaded.EventID(),
			"error", err)
		return fmt.Errorf("update profile picture for %s: %w", uploaded.UserID, err)
	}

	h.logger.Info("profile picture updated from upload",
		"user_id", uploaded.UserID,
		"key", uploaded.Key,
		"event_id", uploaded.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeUploadCompleted, h.HandleUploadCompleted)

	h.logger.Info("profile event handlers registered",
		"handlers", []string{events.EventTypeUploadCompleted})
}
