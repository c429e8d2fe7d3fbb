package models

import (
	"time"
)

// SiteType selects the platform adapter used when publishing.
type SiteType string

const (
	SiteTypeWordPress SiteType = "wordpress"
	SiteTypeShopify   SiteType = "shopify"
)

// PostFrequency is the auto-publish cadence for a site.
type PostFrequency string

const (
	FrequencyDaily   PostFrequency = "daily"
	FrequencyWeekly  PostFrequency = "weekly"
	FrequencyMonthly PostFrequency = "monthly"
)

// Site invariant: LastAutoPublishAt is monotonically non-decreasing.
// Credentials and CrawlData are opaque jsonb documents; their shapes are
// owned by the platform adapters and the crawler respectively.
type Site struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	UserID             uint          `gorm:"not null;index" json:"user_id"`
	Name               string        `gorm:"size:255" json:"name"`
	URL                string        `gorm:"size:1000;not null" json:"url"`
	Type               SiteType      `gorm:"size:50;not null" json:"type"`
	Credentials        []byte        `gorm:"type:jsonb" json:"-"`
	AutoPublishEnabled bool          `gorm:"default:false;index" json:"auto_publish_enabled"`
	PostFrequency      PostFrequency `gorm:"size:50;default:'daily'" json:"post_frequency"`
	DailyPostTime      string        `gorm:"size:5;default:'09:00'" json:"daily_post_time"`
	LastAutoPublishAt  *time.Time    `json:"last_auto_publish_at"`
	CrawlData          []byte        `gorm:"type:jsonb" json:"crawl_data"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type Keyword struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	SiteID       uint      `gorm:"not null;index" json:"site_id"`
	Keyword      string    `gorm:"size:500;not null" json:"keyword"`
	OverallScore *float64  `json:"overall_score"`
	IsPinned     bool      `gorm:"default:false" json:"is_pinned"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
