package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/models"
	"github.com/inkwell-hq/inkwell/internal/queue"
)

const (
	// Keywords scoring above this are preferred for auto-publish picks.
	keywordScoreCutoff = 70

	defaultWordCount = 1000
)

// ScheduledPostHandler runs one auto-publish cycle for a site: it picks a
// keyword, creates a draft post and chains a content-generation job with
// immediate publishing.
type ScheduledPostHandler struct {
	db     *gorm.DB
	queue  queue.Queue
	logger *zap.Logger

	// pick selects an index in [0,n); overridable in tests.
	pick func(n int) int
}

func NewScheduledPostHandler(db *gorm.DB, q queue.Queue, logger *zap.Logger) *ScheduledPostHandler {
	return &ScheduledPostHandler{
		db:     db,
		queue:  q,
		logger: logger,
		pick:   rand.Intn,
	}
}

func (h *ScheduledPostHandler) Type() models.JobType {
	return models.JobTypeScheduledPost
}

type scheduledPostResult struct {
	PostID          uint   `json:"post_id"`
	GenerationJobID uint   `json:"generation_job_id"`
	Keyword         string `json:"keyword"`
}

func (h *ScheduledPostHandler) Handle(ctx context.Context, job *models.Job) (any, error) {
	var payload queue.ScheduledPostPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, NewValidationError("invalid scheduled-post payload: %v", err)
	}

	var site models.Site
	if err := h.db.WithContext(ctx).First(&site, payload.SiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("site %d not found", payload.SiteID)
		}
		return nil, fmt.Errorf("failed to load site %d: %w", payload.SiteID, err)
	}

	keyword, err := h.selectKeyword(ctx, site.ID)
	if err != nil {
		return nil, err
	}
	if keyword == nil {
		h.logger.Info("Auto-publish skipped",
			zap.Uint("site_id", site.ID),
			zap.String("reason", "No keywords available"))
		return SkipResult{Skipped: true, Reason: "No keywords available"}, nil
	}

	post := models.Post{
		UserID:    payload.UserID,
		SiteID:    site.ID,
		KeywordID: &keyword.ID,
		Title:     fmt.Sprintf("Draft: %s", keyword.Keyword),
		Status:    models.PostStatusDraft,
	}
	if err := h.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("failed to create draft post: %w", err)
	}

	genJob, err := h.queue.Enqueue(ctx, payload.UserID, models.JobTypeContentGeneration, queue.ContentGenerationPayload{
		PostID:             post.ID,
		UserID:             payload.UserID,
		SiteID:             site.ID,
		KeywordID:          &keyword.ID,
		WordCount:          defaultWordCount,
		GenerateImages:     true,
		PublishImmediately: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue content-generation job: %w", err)
	}

	h.logger.Info("Auto-publish cycle started",
		zap.Uint("site_id", site.ID),
		zap.Uint("post_id", post.ID),
		zap.String("keyword", keyword.Keyword))

	return scheduledPostResult{
		PostID:          post.ID,
		GenerationJobID: genJob.ID,
		Keyword:         keyword.Keyword,
	}, nil
}

// selectKeyword loads the site's keywords and picks one. Returns nil when
// the site has no keywords at all.
func (h *ScheduledPostHandler) selectKeyword(ctx context.Context, siteID uint) (*models.Keyword, error) {
	var keywords []models.Keyword
	if err := h.db.WithContext(ctx).Where("site_id = ?", siteID).Find(&keywords).Error; err != nil {
		return nil, fmt.Errorf("failed to load keywords for site %d: %w", siteID, err)
	}
	return pickKeyword(keywords, h.pick), nil
}

// pickKeyword prefers keywords scoring above the cutoff; when none qualify
// the whole set is the pool. Nil means there is nothing to pick from.
func pickKeyword(keywords []models.Keyword, pick func(n int) int) *models.Keyword {
	if len(keywords) == 0 {
		return nil
	}

	var strong []models.Keyword
	for _, kw := range keywords {
		if kw.OverallScore != nil && *kw.OverallScore > keywordScoreCutoff {
			strong = append(strong, kw)
		}
	}

	pool := keywords
	if len(strong) > 0 {
		pool = strong
	}
	picked := pool[pick(len(pool))]
	return &picked
}
