package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PostStatus is the publication lifecycle of a Post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// Heading is one heading extracted from or generated for post content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// HeadingList is stored as a jsonb column.
type HeadingList []Heading

func (h *HeadingList) Scan(value interface{}) error {
	if value == nil {
		*h = HeadingList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("cannot scan %T into HeadingList", value)
	}
}

func (h HeadingList) Value() (driver.Value, error) {
	if len(h) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// PostImage is an image attached to a post, with its alt text.
type PostImage struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
}

// ImageList is stored as a jsonb column.
type ImageList []PostImage

func (l *ImageList) Scan(value interface{}) error {
	if value == nil {
		*l = ImageList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into ImageList", value)
	}
}

func (l ImageList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Post invariant: PublishedAt and ExternalPostID are set iff status is published.
type Post struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UserID          uint        `gorm:"not null;index" json:"user_id"`
	SiteID          uint        `gorm:"not null;index" json:"site_id"`
	KeywordID       *uint       `gorm:"index" json:"keyword_id"`
	Title           string      `gorm:"size:500" json:"title"`
	Content         string      `gorm:"type:text" json:"content"`
	MetaTitle       string      `gorm:"size:500" json:"meta_title"`
	MetaDescription string      `gorm:"size:1000" json:"meta_description"`
	Headings        HeadingList `gorm:"type:jsonb" json:"headings"`
	Images          ImageList   `gorm:"type:jsonb" json:"images"`
	Status          PostStatus  `gorm:"size:50;not null;default:'draft';index" json:"status"`
	ScheduledFor    *time.Time  `json:"scheduled_for"`
	PublishedAt     *time.Time  `json:"published_at"`
	ExternalPostID  string      `gorm:"size:255" json:"external_post_id"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// SeoScore is the persisted result of validating one post's content.
type SeoScore struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	PostID                uint      `gorm:"not null;index" json:"post_id"`
	ReadabilityScore      float64   `json:"readability_score"`
	ReadabilityGrade      string    `gorm:"size:50" json:"readability_grade"`
	MetaTitleLength       int       `json:"meta_title_length"`
	MetaDescriptionLength int       `json:"meta_description_length"`
	HeadingStructureValid bool      `json:"heading_structure_valid"`
	KeywordDensity        float64   `json:"keyword_density"`
	AltTagsCoverage       float64   `json:"alt_tags_coverage"`
	OverallSeoScore       float64   `json:"overall_seo_score"`
	ValidationErrors      []byte    `gorm:"type:jsonb" json:"validation_errors"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
}
