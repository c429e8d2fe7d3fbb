package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/generation"
	"github.com/inkwell-hq/inkwell/internal/models"
	"github.com/inkwell-hq/inkwell/internal/queue"
	"github.com/inkwell-hq/inkwell/internal/seo"
)

const maxLinkCandidates = 10

// ContentGenerationHandler turns a draft post into generated, SEO-scored
// content, and chains a publishing job when immediate publishing was
// requested.
type ContentGenerationHandler struct {
	db        *gorm.DB
	queue     queue.Queue
	generator generation.Generator
	images    generation.ImageGenerator
	logger    *zap.Logger
}

func NewContentGenerationHandler(db *gorm.DB, q queue.Queue, gen generation.Generator, img generation.ImageGenerator, logger *zap.Logger) *ContentGenerationHandler {
	return &ContentGenerationHandler{
		db:        db,
		queue:     q,
		generator: gen,
		images:    img,
		logger:    logger,
	}
}

func (h *ContentGenerationHandler) Type() models.JobType {
	return models.JobTypeContentGeneration
}

type contentGenerationResult struct {
	PostID          uint    `json:"post_id"`
	OverallSeoScore float64 `json:"overall_seo_score"`
	ImagesGenerated int     `json:"images_generated"`
	PublishingJobID *uint   `json:"publishing_job_id,omitempty"`
}

func (h *ContentGenerationHandler) Handle(ctx context.Context, job *models.Job) (any, error) {
	var payload queue.ContentGenerationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, NewValidationError("invalid content-generation payload: %v", err)
	}

	var post models.Post
	if err := h.db.WithContext(ctx).First(&post, payload.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("post %d not found", payload.PostID)
		}
		return nil, fmt.Errorf("failed to load post %d: %w", payload.PostID, err)
	}

	result, err := h.generate(ctx, &post, payload)
	if err != nil {
		// The draft keeps its old fields; only the status records the failure.
		if updErr := h.db.WithContext(ctx).Model(&post).
			Update("status", models.PostStatusFailed).Error; updErr != nil {
			h.logger.Error("Failed to mark post failed",
				zap.Uint("post_id", post.ID), zap.Error(updErr))
		}
		return nil, err
	}
	return result, nil
}

func (h *ContentGenerationHandler) generate(ctx context.Context, post *models.Post, payload queue.ContentGenerationPayload) (*contentGenerationResult, error) {
	var site models.Site
	if err := h.db.WithContext(ctx).First(&site, payload.SiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("site %d not found", payload.SiteID)
		}
		return nil, fmt.Errorf("failed to load site %d: %w", payload.SiteID, err)
	}

	keyword := h.resolveKeyword(ctx, &site, payload.KeywordID)
	links := h.linkCandidates(ctx, &site)

	generated, err := h.generator.GenerateContent(ctx, keyword, payload.WordCount, links)
	if err != nil {
		return nil, &ExternalServiceError{Service: "content-generation", Err: err}
	}

	var images models.ImageList
	if payload.GenerateImages && h.images.Enabled() {
		images, err = h.generateImages(ctx, generated, keyword)
		if err != nil {
			return nil, &ExternalServiceError{Service: "image-generation", Err: err}
		}
	}

	score := seo.Validate(seo.Content{
		Title:           generated.Title,
		MetaTitle:       generated.MetaTitle,
		MetaDescription: generated.MetaDescription,
		Content:         generated.Content,
		Headings:        generated.Headings,
		Images:          []models.PostImage(images),
		TargetKeyword:   keyword,
	})

	status := models.PostStatusDraft
	var scheduledFor *time.Time
	if payload.PublishImmediately {
		status = models.PostStatusScheduled
		now := time.Now().UTC()
		scheduledFor = &now
	}

	// All generated fields land in a single update.
	updates := map[string]any{
		"title":            generated.Title,
		"content":          generated.Content,
		"meta_title":       generated.MetaTitle,
		"meta_description": generated.MetaDescription,
		"headings":         models.HeadingList(generated.Headings),
		"images":           images,
		"status":           status,
		"scheduled_for":    scheduledFor,
	}
	if err := h.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to persist generated post %d: %w", post.ID, err)
	}

	issues, err := json.Marshal(score.Issues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal validation issues: %w", err)
	}
	seoRow := models.SeoScore{
		PostID:                post.ID,
		ReadabilityScore:      score.ReadabilityScore,
		ReadabilityGrade:      score.ReadabilityGrade,
		MetaTitleLength:       score.MetaTitleLength,
		MetaDescriptionLength: score.MetaDescriptionLength,
		HeadingStructureValid: score.HeadingStructureValid,
		KeywordDensity:        score.KeywordDensity,
		AltTagsCoverage:       score.AltTagsCoverage,
		OverallSeoScore:       score.OverallSeoScore,
		ValidationErrors:      issues,
	}
	if err := h.db.WithContext(ctx).Create(&seoRow).Error; err != nil {
		return nil, fmt.Errorf("failed to persist seo score for post %d: %w", post.ID, err)
	}

	result := &contentGenerationResult{
		PostID:          post.ID,
		OverallSeoScore: score.OverallSeoScore,
		ImagesGenerated: len(images),
	}

	if payload.PublishImmediately {
		pubJob, err := h.queue.Enqueue(ctx, payload.UserID, models.JobTypePublishing, queue.PublishingPayload{
			PostID: post.ID,
			UserID: payload.UserID,
			SiteID: site.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue publishing job for post %d: %w", post.ID, err)
		}
		result.PublishingJobID = &pubJob.ID
	}

	h.logger.Info("Content generated",
		zap.Uint("post_id", post.ID),
		zap.String("keyword", keyword),
		zap.Float64("seo_score", score.OverallSeoScore),
		zap.Int("images", len(images)))

	return result, nil
}

// resolveKeyword loads the requested keyword, falling back to a generic
// topic derived from the site when it is missing.
func (h *ContentGenerationHandler) resolveKeyword(ctx context.Context, site *models.Site, keywordID *uint) string {
	if keywordID != nil {
		var kw models.Keyword
		if err := h.db.WithContext(ctx).First(&kw, *keywordID).Error; err == nil {
			return kw.Keyword
		}
		h.logger.Warn("Keyword not found, using generic topic",
			zap.Uint("keyword_id", *keywordID))
	}
	if site.Name != "" {
		return fmt.Sprintf("%s news and insights", site.Name)
	}
	return "industry news and insights"
}

// linkCandidates gathers up to ten internal-link candidates from the site's
// previously published posts.
func (h *ContentGenerationHandler) linkCandidates(ctx context.Context, site *models.Site) []generation.LinkContext {
	var posts []models.Post
	err := h.db.WithContext(ctx).
		Where("site_id = ? AND status = ?", site.ID, models.PostStatusPublished).
		Order("published_at DESC").
		Limit(maxLinkCandidates).
		Find(&posts).Error
	if err != nil {
		h.logger.Warn("Failed to load link candidates",
			zap.Uint("site_id", site.ID), zap.Error(err))
		return nil
	}

	links := make([]generation.LinkContext, 0, len(posts))
	for _, p := range posts {
		link := generation.LinkContext{
			Title: p.Title,
			URL:   strings.TrimSuffix(site.URL, "/") + "/" + slug.Make(p.Title),
		}
		if len(p.Headings) > 0 {
			link.Heading = p.Headings[0].Text
		}
		links = append(links, link)
	}
	return links
}

// generateImages invokes the image capability once per required image: a
// hero image plus one per thousand words, capped at three.
func (h *ContentGenerationHandler) generateImages(ctx context.Context, generated *generation.GeneratedContent, keyword string) (models.ImageList, error) {
	required := 1 + len([]rune(generated.Content))/6000
	if required > 3 {
		required = 3
	}

	descriptions := []string{
		fmt.Sprintf("Hero illustration for an article titled %q about %s", generated.Title, keyword),
	}
	for _, heading := range generated.Headings {
		if len(descriptions) >= required {
			break
		}
		if heading.Level == 2 {
			descriptions = append(descriptions,
				fmt.Sprintf("Illustration for the section %q in an article about %s", heading.Text, keyword))
		}
	}

	images := make(models.ImageList, 0, len(descriptions))
	for _, desc := range descriptions {
		img, err := h.images.GenerateImage(ctx, desc)
		if err != nil {
			return nil, err
		}
		images = append(images, models.PostImage{URL: img.URL, AltText: img.AltText})
	}
	return images, nil
}
