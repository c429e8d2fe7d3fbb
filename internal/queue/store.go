package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// Store is the gorm-backed Queue implementation.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Enqueue(ctx context.Context, userID uint, jobType models.JobType, payload any) (*models.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", jobType, err)
	}

	job := &models.Job{
		UserID:  userID,
		Type:    jobType,
		Payload: body,
		Status:  models.JobStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s job: %w", jobType, err)
	}
	return job, nil
}

func (s *Store) Pending(ctx context.Context, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", models.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending jobs: %w", err)
	}
	return jobs, nil
}

// Claim performs the conditional update that moves a job from pending to
// processing. With two competing worker processes only one sees a row
// affected; the other skips the job.
func (s *Store) Claim(ctx context.Context, jobID uint) (bool, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusPending).
		Updates(map[string]any{
			"status":     models.JobStatusProcessing,
			"started_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim job %d: %w", jobID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) Complete(ctx context.Context, jobID uint, result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job %d result: %w", jobID, err)
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusProcessing).
		Updates(map[string]any{
			"status":       models.JobStatusCompleted,
			"result":       body,
			"completed_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to complete job %d: %w", jobID, err)
	}
	return nil
}

func (s *Store) Fail(ctx context.Context, jobID uint, errMsg string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusProcessing).
		Updates(map[string]any{
			"status":       models.JobStatusFailed,
			"error":        errMsg,
			"completed_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark job %d failed: %w", jobID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, jobID uint) (*models.Job, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}
