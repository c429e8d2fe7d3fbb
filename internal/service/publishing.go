package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/models"
	"github.com/inkwell-hq/inkwell/internal/platform"
	"github.com/inkwell-hq/inkwell/internal/queue"
)

// PublishingHandler pushes a finished post to its site's platform. There is
// no automatic retry; re-publishing requires a new job.
type PublishingHandler struct {
	db       *gorm.DB
	registry *platform.Registry
	logger   *zap.Logger
}

func NewPublishingHandler(db *gorm.DB, registry *platform.Registry, logger *zap.Logger) *PublishingHandler {
	return &PublishingHandler{
		db:       db,
		registry: registry,
		logger:   logger,
	}
}

func (h *PublishingHandler) Type() models.JobType {
	return models.JobTypePublishing
}

func (h *PublishingHandler) Handle(ctx context.Context, job *models.Job) (any, error) {
	var payload queue.PublishingPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, NewValidationError("invalid publishing payload: %v", err)
	}

	var post models.Post
	if err := h.db.WithContext(ctx).First(&post, payload.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("post %d not found", payload.PostID)
		}
		return nil, fmt.Errorf("failed to load post %d: %w", payload.PostID, err)
	}

	var site models.Site
	if err := h.db.WithContext(ctx).First(&site, payload.SiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("site %d not found", payload.SiteID)
		}
		return nil, fmt.Errorf("failed to load site %d: %w", payload.SiteID, err)
	}

	adapter, err := h.registry.Get(site.Type)
	if err != nil {
		return nil, NewValidationError("site %d: %v", site.ID, err)
	}

	result, err := adapter.Publish(ctx, &site, platform.PublishRequest{
		Title:           post.Title,
		Content:         post.Content,
		MetaTitle:       post.MetaTitle,
		MetaDescription: post.MetaDescription,
	})
	if err != nil {
		if updErr := h.db.WithContext(ctx).Model(&post).
			Update("status", models.PostStatusFailed).Error; updErr != nil {
			h.logger.Error("Failed to mark post failed",
				zap.Uint("post_id", post.ID), zap.Error(updErr))
		}
		return nil, &ExternalServiceError{Service: string(site.Type), Err: err}
	}

	now := time.Now().UTC()
	err = h.db.WithContext(ctx).Model(&post).Updates(map[string]any{
		"status":           models.PostStatusPublished,
		"published_at":     now,
		"external_post_id": result.ExternalID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to finalize post %d: %w", post.ID, err)
	}

	h.logger.Info("Post published",
		zap.Uint("post_id", post.ID),
		zap.String("platform", string(site.Type)),
		zap.String("external_id", result.ExternalID),
		zap.String("url", result.URL))

	return result, nil
}
