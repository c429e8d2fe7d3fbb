package models

import (
	"time"
)

// JobType is the closed set of work the pipeline knows how to execute.
type JobType string

const (
	JobTypeContentGeneration JobType = "content-generation"
	JobTypePublishing        JobType = "publishing"
	JobTypeScheduledPost     JobType = "scheduled-post"
)

// JobStatus transitions only pending -> processing -> completed|failed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type Job struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Type        JobType    `gorm:"size:50;not null;index" json:"type"`
	Payload     []byte     `gorm:"type:jsonb;not null;default:'{}'::jsonb" json:"payload"`
	Status      JobStatus  `gorm:"size:50;not null;default:'pending';index" json:"status"`
	Result      []byte     `gorm:"type:jsonb" json:"result"`
	Error       string     `gorm:"type:text" json:"error"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}
