package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/crawler"
	"github.com/inkwell-hq/inkwell/internal/models"
)

// CrawlService runs crawl sessions for sites and persists the result as the
// site's crawl_data document. Sessions for different sites share no state
// and may run concurrently.
type CrawlService struct {
	db      *gorm.DB
	crawler *crawler.Crawler
	logger  *zap.Logger
}

func NewCrawlService(db *gorm.DB, c *crawler.Crawler, logger *zap.Logger) *CrawlService {
	return &CrawlService{
		db:      db,
		crawler: c,
		logger:  logger,
	}
}

// CrawlSite runs one session against the site's URL and stores the result.
func (s *CrawlService) CrawlSite(ctx context.Context, siteID uint, preset crawler.Preset) (*crawler.Result, error) {
	var site models.Site
	if err := s.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("site %d not found", siteID)
		}
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	result, err := s.crawler.Crawl(ctx, site.URL, preset)
	if err != nil {
		return nil, fmt.Errorf("crawl of site %d failed: %w", siteID, err)
	}

	doc, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal crawl result: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&site).
		Update("crawl_data", doc).Error; err != nil {
		return nil, fmt.Errorf("failed to persist crawl data for site %d: %w", siteID, err)
	}

	s.logger.Info("Crawl data stored",
		zap.Uint("site_id", siteID),
		zap.Int("pages", result.TotalPages),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}
