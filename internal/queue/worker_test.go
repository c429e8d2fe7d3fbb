package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// memQueue is an in-memory Queue with the same lifecycle semantics as the
// gorm store: Claim only succeeds on a pending job, Complete and Fail only
// apply to a processing one.
type memQueue struct {
	mu     sync.Mutex
	nextID uint
	jobs   map[uint]*models.Job
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[uint]*models.Job{}}
}

func (q *memQueue) Enqueue(_ context.Context, userID uint, jobType models.JobType, payload any) (*models.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	job := &models.Job{
		ID:        q.nextID,
		UserID:    userID,
		Type:      jobType,
		Payload:   body,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}
	q.jobs[job.ID] = job
	return job, nil
}

func (q *memQueue) Pending(_ context.Context, limit int) ([]models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.Job
	for _, job := range q.jobs {
		if job.Status == models.JobStatusPending {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *memQueue) Claim(_ context.Context, jobID uint) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != models.JobStatusPending {
		return false, nil
	}
	now := time.Now()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	return true, nil
}

func (q *memQueue) Complete(_ context.Context, jobID uint, result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != models.JobStatusProcessing {
		return nil
	}
	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Result = body
	job.CompletedAt = &now
	return nil
}

func (q *memQueue) Fail(_ context.Context, jobID uint, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != models.JobStatusProcessing {
		return nil
	}
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = errMsg
	job.CompletedAt = &now
	return nil
}

func (q *memQueue) Get(_ context.Context, jobID uint) (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	clone := *job
	return &clone, nil
}

// fakeHandler records the jobs it sees and returns a canned outcome per job
// ID.
type fakeHandler struct {
	jobType models.JobType
	mu      sync.Mutex
	handled []uint
	fail    map[uint]error
}

func (h *fakeHandler) Type() models.JobType { return h.jobType }

func (h *fakeHandler) Handle(_ context.Context, job *models.Job) (any, error) {
	h.mu.Lock()
	h.handled = append(h.handled, job.ID)
	h.mu.Unlock()
	if err := h.fail[job.ID]; err != nil {
		return nil, err
	}
	return map[string]uint{"job_id": job.ID}, nil
}

func newTestWorker(q Queue, batchSize int) *Worker {
	return NewWorker(q, zap.NewNop(), time.Hour, batchSize)
}

func TestWorkerTickProcessesBatch(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()
	handler := &fakeHandler{jobType: models.JobTypeContentGeneration}

	w := newTestWorker(q, 5)
	if err := w.Register(handler); err != nil {
		t.Fatal(err)
	}

	var ids []uint
	for i := 0; i < 3; i++ {
		job, err := q.Enqueue(ctx, 1, models.JobTypeContentGeneration, ContentGenerationPayload{PostID: uint(i + 1)})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, job.ID)
	}

	w.Tick(ctx)

	if len(handler.handled) != 3 {
		t.Fatalf("handled %v, want all 3 jobs", handler.handled)
	}
	for _, id := range ids {
		job, err := q.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status != models.JobStatusCompleted {
			t.Errorf("job %d status = %s, want completed", id, job.Status)
		}
		if job.StartedAt == nil || job.CompletedAt == nil {
			t.Errorf("job %d is missing timestamps", id)
		}
		if len(job.Result) == 0 {
			t.Errorf("job %d has no result", id)
		}
	}
}

func TestWorkerFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()

	first, _ := q.Enqueue(ctx, 1, models.JobTypePublishing, PublishingPayload{PostID: 1})
	second, _ := q.Enqueue(ctx, 1, models.JobTypePublishing, PublishingPayload{PostID: 2})

	handler := &fakeHandler{
		jobType: models.JobTypePublishing,
		fail:    map[uint]error{first.ID: errors.New("wordpress returned 503")},
	}
	w := newTestWorker(q, 5)
	if err := w.Register(handler); err != nil {
		t.Fatal(err)
	}

	w.Tick(ctx)

	failed, _ := q.Get(ctx, first.ID)
	if failed.Status != models.JobStatusFailed {
		t.Errorf("first job status = %s, want failed", failed.Status)
	}
	if failed.Error != "wordpress returned 503" {
		t.Errorf("first job error = %q", failed.Error)
	}

	ok, _ := q.Get(ctx, second.ID)
	if ok.Status != models.JobStatusCompleted {
		t.Errorf("second job status = %s, want completed", ok.Status)
	}
}

func TestWorkerRespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()
	handler := &fakeHandler{jobType: models.JobTypeScheduledPost}

	w := newTestWorker(q, 2)
	if err := w.Register(handler); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		q.Enqueue(ctx, 1, models.JobTypeScheduledPost, ScheduledPostPayload{SiteID: uint(i + 1)})
	}

	w.Tick(ctx)
	if len(handler.handled) != 2 {
		t.Fatalf("first tick handled %d jobs, want 2", len(handler.handled))
	}

	w.Tick(ctx)
	w.Tick(ctx)
	if len(handler.handled) != 5 {
		t.Fatalf("after three ticks handled %d jobs, want 5", len(handler.handled))
	}
}

func TestWorkerSkipsAlreadyClaimedJob(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()
	handler := &fakeHandler{jobType: models.JobTypeContentGeneration}

	w := newTestWorker(q, 5)
	if err := w.Register(handler); err != nil {
		t.Fatal(err)
	}

	job, _ := q.Enqueue(ctx, 1, models.JobTypeContentGeneration, ContentGenerationPayload{PostID: 1})

	// Simulate another worker winning the claim between Pending and Claim.
	claimed, err := q.Claim(ctx, job.ID)
	if err != nil || !claimed {
		t.Fatalf("setup claim failed: %v %v", claimed, err)
	}

	// The job is already processing, so Pending won't return it; hand it to
	// process directly the way a stale batch would.
	w.process(ctx, job)

	if len(handler.handled) != 0 {
		t.Errorf("handler ran %v for a job claimed elsewhere", handler.handled)
	}
	got, _ := q.Get(ctx, job.ID)
	if got.Status != models.JobStatusProcessing {
		t.Errorf("status = %s, want processing untouched", got.Status)
	}
}

func TestWorkerUnknownTypeFailsJob(t *testing.T) {
	ctx := context.Background()
	q := newMemQueue()

	w := newTestWorker(q, 5)
	// No handlers registered at all.

	job, _ := q.Enqueue(ctx, 1, models.JobTypePublishing, PublishingPayload{PostID: 1})

	w.Tick(ctx)

	got, _ := q.Get(ctx, job.ID)
	if got.Status != models.JobStatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if want := fmt.Sprintf("no handler for job type %s", models.JobTypePublishing); got.Error != want {
		t.Errorf("error = %q, want %q", got.Error, want)
	}
}

func TestWorkerRegisterRejectsDuplicate(t *testing.T) {
	w := newTestWorker(newMemQueue(), 1)
	if err := w.Register(&fakeHandler{jobType: models.JobTypePublishing}); err != nil {
		t.Fatal(err)
	}
	if err := w.Register(&fakeHandler{jobType: models.JobTypePublishing}); err == nil {
		t.Error("second registration for the same type should fail")
	}
}
