package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/models"
	"github.com/inkwell-hq/inkwell/internal/platform"
	"github.com/inkwell-hq/inkwell/internal/queue"
)

// stubQueue records enqueues and serves canned jobs; the database-backed
// routes are covered by integration testing, not here.
type stubQueue struct {
	enqueued []models.Job
	jobs     map[uint]*models.Job
}

func (q *stubQueue) Enqueue(_ context.Context, userID uint, jobType models.JobType, payload any) (*models.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	job := models.Job{
		ID:      uint(len(q.enqueued) + 1),
		UserID:  userID,
		Type:    jobType,
		Payload: body,
		Status:  models.JobStatusPending,
	}
	q.enqueued = append(q.enqueued, job)
	return &job, nil
}

func (q *stubQueue) Pending(context.Context, int) ([]models.Job, error) { return nil, nil }
func (q *stubQueue) Claim(context.Context, uint) (bool, error)         { return false, nil }
func (q *stubQueue) Complete(context.Context, uint, any) error         { return nil }
func (q *stubQueue) Fail(context.Context, uint, string) error          { return nil }

func (q *stubQueue) Get(_ context.Context, jobID uint) (*models.Job, error) {
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, errors.New("not found")
	}
	return job, nil
}

func newTestServer(q queue.Queue) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		Router: gin.New(),
		Logger: zap.NewNop(),
		Queue:  q,
	}
	s.setupRoutes(platform.NewRegistry(zap.NewNop()))
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(newTestServer(&stubQueue{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateJob(t *testing.T) {
	q := &stubQueue{}
	s := newTestServer(q)

	body := `{"user_id":1,"type":"content-generation","payload":{"post_id":9,"site_id":2,"word_count":800}}`
	rec := doRequest(s, http.MethodPost, "/api/v1/jobs", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if len(q.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs", len(q.enqueued))
	}
	job := q.enqueued[0]
	if job.Type != models.JobTypeContentGeneration {
		t.Errorf("type = %s", job.Type)
	}

	// The payload passes through untouched.
	var payload queue.ContentGenerationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.PostID != 9 || payload.WordCount != 800 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestCreateJobRejectsUnknownType(t *testing.T) {
	q := &stubQueue{}
	s := newTestServer(q)

	rec := doRequest(s, http.MethodPost, "/api/v1/jobs",
		`{"user_id":1,"type":"mine-bitcoin","payload":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(q.enqueued) != 0 {
		t.Error("rejected job was enqueued")
	}
}

func TestCreateJobRejectsMissingFields(t *testing.T) {
	rec := doRequest(newTestServer(&stubQueue{}), http.MethodPost, "/api/v1/jobs",
		`{"type":"publishing"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetJob(t *testing.T) {
	q := &stubQueue{jobs: map[uint]*models.Job{
		5: {ID: 5, Type: models.JobTypePublishing, Status: models.JobStatusCompleted},
	}}
	s := newTestServer(q)

	rec := doRequest(s, http.MethodGet, "/api/v1/jobs/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got models.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != 5 || got.Status != models.JobStatusCompleted {
		t.Errorf("job = %+v", got)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs/notanid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d", rec.Code)
	}
}
