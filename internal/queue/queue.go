// Package queue owns job persistence and the polling worker. The Queue
// interface keeps the backend swappable; handlers never touch job rows
// directly.
package queue

import (
	"context"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// Payload shapes, one per job type. Dispatch decodes exactly the payload
// belonging to the job's type.

type ContentGenerationPayload struct {
	PostID             uint  `json:"post_id"`
	UserID             uint  `json:"user_id"`
	SiteID             uint  `json:"site_id"`
	KeywordID          *uint `json:"keyword_id,omitempty"`
	WordCount          int   `json:"word_count"`
	GenerateImages     bool  `json:"generate_images"`
	PublishImmediately bool  `json:"publish_immediately"`
}

type PublishingPayload struct {
	PostID uint `json:"post_id"`
	UserID uint `json:"user_id"`
	SiteID uint `json:"site_id"`
}

type ScheduledPostPayload struct {
	SiteID uint `json:"site_id"`
	UserID uint `json:"user_id"`
}

// Queue is the job lifecycle contract.
//
// Claim is the atomic pending->processing transition: it succeeds for at
// most one caller per job, which makes concurrent worker processes safe.
type Queue interface {
	Enqueue(ctx context.Context, userID uint, jobType models.JobType, payload any) (*models.Job, error)
	Pending(ctx context.Context, limit int) ([]models.Job, error)
	Claim(ctx context.Context, jobID uint) (bool, error)
	Complete(ctx context.Context, jobID uint, result any) error
	Fail(ctx context.Context, jobID uint, errMsg string) error
	Get(ctx context.Context, jobID uint) (*models.Job, error)
}
