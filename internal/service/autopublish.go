package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/config"
	"github.com/inkwell-hq/inkwell/internal/models"
	"github.com/inkwell-hq/inkwell/internal/queue"
)

// AutoPublishScheduler evaluates every auto-publish-enabled site once per
// hour and enqueues a scheduled-post job for each site that is due. It only
// ever creates job records; all external I/O happens in the handlers.
//
// LastAutoPublishAt is advanced when the job is enqueued, before the chained
// generation is known to succeed, so a failed generation run forfeits that
// cadence window rather than retrying within it.
type AutoPublishScheduler struct {
	config *config.SchedulerConfig
	db     *gorm.DB
	queue  queue.Queue
	logger *zap.Logger
	cron   *cron.Cron

	// now is the clock; overridable in tests.
	now func() time.Time
}

func NewAutoPublishScheduler(cfg *config.SchedulerConfig, db *gorm.DB, q queue.Queue, logger *zap.Logger) *AutoPublishScheduler {
	return &AutoPublishScheduler{
		config: cfg,
		db:     db,
		queue:  q,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AutoPublishScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Auto-publish scheduler is disabled")
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.config.Spec, func() {
		s.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.config.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("Auto-publish scheduler started", zap.String("spec", s.config.Spec))
	return nil
}

func (s *AutoPublishScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.logger.Info("Auto-publish scheduler shutdown completed")
}

// RunCycle evaluates all enabled sites. A failing site never aborts the
// cycle.
func (s *AutoPublishScheduler) RunCycle(ctx context.Context) {
	var sites []models.Site
	if err := s.db.WithContext(ctx).
		Where("auto_publish_enabled = ?", true).
		Find(&sites).Error; err != nil {
		s.logger.Error("Failed to load auto-publish sites", zap.Error(err))
		return
	}

	for i := range sites {
		site := &sites[i]
		job, skip, err := s.EvaluateSite(ctx, site)
		switch {
		case err != nil:
			s.logger.Error("Auto-publish evaluation failed",
				zap.Uint("site_id", site.ID), zap.Error(err))
		case skip != "":
			s.logger.Debug("Auto-publish skipped",
				zap.Uint("site_id", site.ID), zap.String("reason", skip))
		default:
			s.logger.Info("Auto-publish job enqueued",
				zap.Uint("site_id", site.ID), zap.Uint("job_id", job.ID))
		}
	}
}

// EvaluateSite applies the cadence gates for one site. When the site is due
// it advances LastAutoPublishAt and enqueues a scheduled-post job; otherwise
// it returns the skip reason with no state change.
func (s *AutoPublishScheduler) EvaluateSite(ctx context.Context, site *models.Site) (*models.Job, string, error) {
	now := s.now()

	skip, err := evaluateCadence(site, now)
	if err != nil {
		return nil, "", err
	}
	if skip != "" {
		return nil, skip, nil
	}

	// Advance the cadence marker first; the generation outcome is unknown
	// until the chained jobs run.
	if err := s.db.WithContext(ctx).Model(site).
		Update("last_auto_publish_at", now).Error; err != nil {
		return nil, "", fmt.Errorf("failed to update last_auto_publish_at for site %d: %w", site.ID, err)
	}
	site.LastAutoPublishAt = &now

	job, err := s.queue.Enqueue(ctx, site.UserID, models.JobTypeScheduledPost, queue.ScheduledPostPayload{
		SiteID: site.ID,
		UserID: site.UserID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to enqueue scheduled-post job for site %d: %w", site.ID, err)
	}

	return job, "", nil
}

// evaluateCadence applies the hour, frequency and last-publish gates for
// one site against the given clock. An empty skip reason means the site is
// due now.
func evaluateCadence(site *models.Site, now time.Time) (string, error) {
	hour, err := parsePostHour(site.DailyPostTime)
	if err != nil {
		return "", NewValidationError("site %d has invalid daily post time %q", site.ID, site.DailyPostTime)
	}
	if now.Hour() != hour {
		return "Not scheduled for this hour", nil
	}

	switch site.PostFrequency {
	case models.FrequencyWeekly:
		if now.Weekday() != time.Monday {
			return "Weekly posts are published on Monday", nil
		}
	case models.FrequencyMonthly:
		if now.Day() != 1 {
			return "Monthly posts are published on the 1st", nil
		}
	}

	return alreadyPublished(site, now), nil
}

// alreadyPublished checks the LastAutoPublishAt gate for the site's cadence.
func alreadyPublished(site *models.Site, now time.Time) string {
	last := site.LastAutoPublishAt
	if last == nil {
		return ""
	}

	switch site.PostFrequency {
	case models.FrequencyWeekly:
		if !last.Before(startOfWeek(now)) {
			return "Already published this week"
		}
	case models.FrequencyMonthly:
		if last.Year() == now.Year() && last.Month() == now.Month() {
			return "Already published this month"
		}
	default:
		if sameDay(*last, now) {
			return "Already published today"
		}
	}
	return ""
}

// startOfWeek is this week's Monday at 00:00 in now's location.
func startOfWeek(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	day := now.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func parsePostHour(hhmm string) (int, error) {
	hourStr, _, found := strings.Cut(hhmm, ":")
	if !found {
		return 0, fmt.Errorf("expected HH:MM, got %q", hhmm)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	return hour, nil
}
