package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gartstein/hiring/internal/pipeline/auth"
	"github.com/gartstein/hiring/internal/pipeline/controller"
	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/export"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubController implements only what each test sets; anything else panics
// through the nil embedded interface.
type stubController struct {
	PipelineController

	createJob             func(*tracker.Actor, *models.Job) (*models.Job, error)
	getJob                func(*tracker.Actor, uuid.UUID) (*models.Job, error)
	listJobs              func(*tracker.Actor) ([]models.Job, error)
	apply                 func(*tracker.Actor, controller.ApplyRequest) (*models.Application, error)
	transitionApplication func(*tracker.Actor, uuid.UUID, models.ApplicationStatus) (*models.Application, error)
	submitAssessment      func(*tracker.Actor, controller.AssessmentRequest) (*models.Assessment, error)
	hireCandidate         func(*tracker.Actor, uuid.UUID) (*models.Employee, bool, error)
	exportApplications    func(*tracker.Actor, uuid.UUID, io.Writer) error
}

func (s *stubController) CreateJob(_ context.Context, a *tracker.Actor, job *models.Job) (*models.Job, error) {
	return s.createJob(a, job)
}

func (s *stubController) GetJob(_ context.Context, a *tracker.Actor, id uuid.UUID) (*models.Job, error) {
	return s.getJob(a, id)
}

func (s *stubController) ListJobs(_ context.Context, a *tracker.Actor) ([]models.Job, error) {
	return s.listJobs(a)
}

func (s *stubController) Apply(_ context.Context, a *tracker.Actor, req controller.ApplyRequest) (*models.Application, error) {
	return s.apply(a, req)
}

func (s *stubController) TransitionApplication(_ context.Context, a *tracker.Actor, id uuid.UUID, to models.ApplicationStatus) (*models.Application, error) {
	return s.transitionApplication(a, id, to)
}

func (s *stubController) SubmitAssessment(_ context.Context, a *tracker.Actor, req controller.AssessmentRequest) (*models.Assessment, error) {
	return s.submitAssessment(a, req)
}

func (s *stubController) HireCandidate(_ context.Context, a *tracker.Actor, offerID uuid.UUID) (*models.Employee, bool, error) {
	return s.hireCandidate(a, offerID)
}

func (s *stubController) ExportApplications(_ context.Context, a *tracker.Actor, jobID uuid.UUID, w io.Writer) error {
	return s.exportApplications(a, jobID, w)
}

var hrActor = &tracker.Actor{UserID: uuid.New(), Role: models.RoleHRManager}

// serve runs one request through the handler with actor already authenticated.
func serve(t *testing.T, svc PipelineController, actor *tracker.Actor, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	h, err := NewPipelineHandler(svc, zaptest.NewLogger(t))
	require.NoError(t, err)

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)
	return rec
}

func TestCreateJob(t *testing.T) {
	svc := &stubController{
		createJob: func(a *tracker.Actor, job *models.Job) (*models.Job, error) {
			assert.Equal(t, hrActor, a)
			assert.Equal(t, models.FullTime, job.EmploymentType)
			job.ID = uuid.New()
			job.Status = models.JobDraft
			return job, nil
		},
	}

	rec := serve(t, svc, hrActor, http.MethodPost, "/v1/jobs", JobRequest{
		Title:          "Backend Engineer",
		EmploymentType: string(models.FullTime),
		SalaryMin:      80000,
		SalaryMax:      120000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, string(models.JobDraft), got.Status)
}

func TestCreateJob_BadEnum(t *testing.T) {
	rec := serve(t, &stubController{}, hrActor, http.MethodPost, "/v1/jobs", JobRequest{
		Title:          "Backend Engineer",
		EmploymentType: "GIG",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListJobs(t *testing.T) {
	svc := &stubController{
		listJobs: func(a *tracker.Actor) ([]models.Job, error) {
			assert.Nil(t, a, "anonymous browse")
			return []models.Job{{ID: uuid.New(), Title: "A", Status: models.JobOpen}}, nil
		},
	}
	rec := serve(t, svc, nil, http.MethodGet, "/v1/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthenticated", e.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", e.ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("application: %w", e.ErrNotFound), http.StatusNotFound},
		{"conflict", e.ErrConflict, http.StatusConflict},
		{"invalid input", e.ErrInvalidInput, http.StatusBadRequest},
		{"invalid transition", e.ErrInvalidTransition, http.StatusBadRequest},
		{"precondition", e.ErrPrecondition, http.StatusBadRequest},
		{"unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubController{
				transitionApplication: func(*tracker.Actor, uuid.UUID, models.ApplicationStatus) (*models.Application, error) {
					return nil, tt.err
				},
			}
			rec := serve(t, svc, hrActor, http.MethodPatch, "/v1/applications/"+uuid.NewString(),
				StatusRequest{Status: string(models.ApplicationReviewed)})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestTransitionApplication(t *testing.T) {
	id := uuid.New()
	svc := &stubController{
		transitionApplication: func(_ *tracker.Actor, got uuid.UUID, to models.ApplicationStatus) (*models.Application, error) {
			assert.Equal(t, id, got)
			assert.Equal(t, models.ApplicationReviewed, to)
			return &models.Application{ID: id, Status: to}, nil
		},
	}

	t.Run("ok", func(t *testing.T) {
		rec := serve(t, svc, hrActor, http.MethodPatch, "/v1/applications/"+id.String(),
			StatusRequest{Status: string(models.ApplicationReviewed)})
		require.Equal(t, http.StatusOK, rec.Code)

		var got ApplicationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, string(models.ApplicationReviewed), got.Status)
		assert.Contains(t, got.NextStatuses, string(models.ApplicationInterview))
	})

	t.Run("unknown status", func(t *testing.T) {
		rec := serve(t, svc, hrActor, http.MethodPatch, "/v1/applications/"+id.String(),
			StatusRequest{Status: "PROMOTED"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := serve(t, svc, hrActor, http.MethodPatch, "/v1/applications/not-a-uuid",
			StatusRequest{Status: string(models.ApplicationReviewed)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		h, err := NewPipelineHandler(svc, zaptest.NewLogger(t))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPatch, "/v1/applications/"+id.String(), bytes.NewBufferString("{"))
		req = req.WithContext(auth.WithActor(req.Context(), hrActor))
		rec := httptest.NewRecorder()
		h.Mux().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApply(t *testing.T) {
	jobID := uuid.New()
	svc := &stubController{
		apply: func(_ *tracker.Actor, req controller.ApplyRequest) (*models.Application, error) {
			assert.Equal(t, jobID, req.JobID)
			return &models.Application{ID: uuid.New(), JobID: jobID, CandidateEmail: req.CandidateEmail, Status: models.ApplicationSubmitted}, nil
		},
	}
	rec := serve(t, svc, nil, http.MethodPost, "/v1/jobs/"+jobID.String()+"/applications", ApplyRequest{
		CandidateName:  "Ada",
		CandidateEmail: "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got ApplicationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, jobID, got.JobID)
	assert.Equal(t, string(models.ApplicationSubmitted), got.Status)
}

func TestSubmitAssessment_Duplicate(t *testing.T) {
	svc := &stubController{
		submitAssessment: func(*tracker.Actor, controller.AssessmentRequest) (*models.Assessment, error) {
			return nil, controller.ErrAssessmentExists
		},
	}
	rec := serve(t, svc, hrActor, http.MethodPost, "/v1/assessments", AssessmentRequest{
		InterviewID:         uuid.New(),
		TechnicalRating:     8,
		CommunicationRating: 7,
		CulturalFitRating:   9,
		OverallRating:       8,
		Recommendation:      string(models.Hire),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestHireCandidate(t *testing.T) {
	offerID := uuid.New()
	tests := []struct {
		name       string
		created    bool
		wantStatus int
	}{
		{"new employee", true, http.StatusCreated},
		{"already hired", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubController{
				hireCandidate: func(_ *tracker.Actor, id uuid.UUID) (*models.Employee, bool, error) {
					assert.Equal(t, offerID, id)
					return &models.Employee{ID: uuid.New(), OfferID: id, EmployeeNumber: "EMP-0000ABCD", Status: models.EmployeeActive}, tt.created, nil
				},
			}
			rec := serve(t, svc, hrActor, http.MethodPost, "/v1/employees", HireRequest{OfferID: offerID})
			require.Equal(t, tt.wantStatus, rec.Code)

			var got EmployeeResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "EMP-0000ABCD", got.EmployeeNumber)
		})
	}

	t.Run("missing offer", func(t *testing.T) {
		rec := serve(t, &stubController{}, hrActor, http.MethodPost, "/v1/employees", HireRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportApplications(t *testing.T) {
	jobID := uuid.New()
	svc := &stubController{
		exportApplications: func(_ *tracker.Actor, id uuid.UUID, w io.Writer) error {
			assert.Equal(t, jobID, id)
			_, err := w.Write([]byte("xlsx-bytes"))
			return err
		},
	}
	rec := serve(t, svc, hrActor, http.MethodGet, "/v1/jobs/"+jobID.String()+"/applications/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), jobID.String())
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	rec := serve(t, &stubController{}, hrActor, http.MethodGet, "/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
