package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// DashboardSummary is the read-model served by the status endpoint.
type DashboardSummary struct {
	PendingJobs       int64      `json:"pending_jobs"`
	ProcessingJobs    int64      `json:"processing_jobs"`
	CompletedJobs     int64      `json:"completed_jobs"`
	FailedJobs        int64      `json:"failed_jobs"`
	DraftPosts        int64      `json:"draft_posts"`
	ScheduledPosts    int64      `json:"scheduled_posts"`
	PublishedPosts    int64      `json:"published_posts"`
	FailedPosts       int64      `json:"failed_posts"`
	AutoPublishSites  int64      `json:"auto_publish_sites"`
	LastPublishedAt   *time.Time `json:"last_published_at"`
	LastAutoPublishAt *time.Time `json:"last_auto_publish_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// DashboardService aggregates pipeline counters on a fixed interval and
// serves the cached snapshot.
type DashboardService struct {
	db     *gorm.DB
	logger *zap.Logger
	ticker *time.Ticker
	done   chan bool

	mu       sync.RWMutex
	snapshot DashboardSummary
}

func NewDashboardService(db *gorm.DB, logger *zap.Logger, interval time.Duration) *DashboardService {
	return &DashboardService{
		db:     db,
		logger: logger,
		ticker: time.NewTicker(interval),
		done:   make(chan bool),
	}
}

// Start begins the periodic refresh. The first refresh runs immediately.
func (s *DashboardService) Start(ctx context.Context) {
	go func() {
		s.logger.Info("Starting dashboard updater")
		s.refresh(ctx)
		for {
			select {
			case <-s.done:
				s.logger.Info("Dashboard updater stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Dashboard updater stopped due to context cancellation")
				return
			case <-s.ticker.C:
				s.refresh(ctx)
			}
		}
	}()
}

func (s *DashboardService) Stop() {
	s.ticker.Stop()
	close(s.done)
}

// Summary returns the latest cached snapshot.
func (s *DashboardService) Summary() DashboardSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *DashboardService) refresh(ctx context.Context) {
	var next DashboardSummary
	db := s.db.WithContext(ctx)

	jobCounts := map[models.JobStatus]*int64{
		models.JobStatusPending:    &next.PendingJobs,
		models.JobStatusProcessing: &next.ProcessingJobs,
		models.JobStatusCompleted:  &next.CompletedJobs,
		models.JobStatusFailed:     &next.FailedJobs,
	}
	for status, dst := range jobCounts {
		if err := db.Model(&models.Job{}).Where("status = ?", status).Count(dst).Error; err != nil {
			s.logger.Error("Failed to count jobs", zap.String("status", string(status)), zap.Error(err))
			return
		}
	}

	postCounts := map[models.PostStatus]*int64{
		models.PostStatusDraft:     &next.DraftPosts,
		models.PostStatusScheduled: &next.ScheduledPosts,
		models.PostStatusPublished: &next.PublishedPosts,
		models.PostStatusFailed:    &next.FailedPosts,
	}
	for status, dst := range postCounts {
		if err := db.Model(&models.Post{}).Where("status = ?", status).Count(dst).Error; err != nil {
			s.logger.Error("Failed to count posts", zap.String("status", string(status)), zap.Error(err))
			return
		}
	}

	if err := db.Model(&models.Site{}).
		Where("auto_publish_enabled = ?", true).
		Count(&next.AutoPublishSites).Error; err != nil {
		s.logger.Error("Failed to count sites", zap.Error(err))
		return
	}

	var lastPost models.Post
	if err := db.Where("status = ?", models.PostStatusPublished).
		Order("published_at DESC").First(&lastPost).Error; err == nil {
		next.LastPublishedAt = lastPost.PublishedAt
	}

	var lastSite models.Site
	if err := db.Where("last_auto_publish_at IS NOT NULL").
		Order("last_auto_publish_at DESC").First(&lastSite).Error; err == nil {
		next.LastAutoPublishAt = lastSite.LastAutoPublishAt
	}

	next.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.snapshot = next
	s.mu.Unlock()

	s.logger.Debug("Dashboard snapshot refreshed")
}
