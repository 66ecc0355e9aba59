package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/gartstein/hiring/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateJob stores a new job posting in DRAFT (or OPEN when requested).
func (s *PipelineService) CreateJob(ctx context.Context, actor *tracker.Actor, job *models.Job) (*models.Job, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	job.Title = strings.TrimSpace(job.Title)
	if job.Title == "" || len(job.Title) > 200 {
		return nil, fmt.Errorf("%w: invalid title", e.ErrInvalidInput)
	}
	if job.SalaryMin < 0 || job.SalaryMax < 0 {
		return nil, fmt.Errorf("%w: salary must not be negative", e.ErrInvalidInput)
	}
	if job.SalaryMax > 0 && job.SalaryMin > job.SalaryMax {
		return nil, fmt.Errorf("%w: salary range is inverted", e.ErrInvalidInput)
	}
	switch job.Status {
	case "":
		job.Status = models.JobDraft
	case models.JobDraft, models.JobOpen:
	default:
		return nil, fmt.Errorf("%w: a job starts as %s or %s", e.ErrInvalidInput, models.JobDraft, models.JobOpen)
	}

	job.ID = uuid.New()
	job.CreatedBy = actor.UserID
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	s.emit(events.New(events.JobCreated, events.EntityJob, job.ID, uuid.Nil, "", string(job.Status), actor.UserID))
	return job, nil
}

// GetJob returns a job. Callers that are not staff only see OPEN jobs.
func (s *PipelineService) GetJob(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job.Status != models.JobOpen && tracker.RequireStaff(actor) != nil {
		return nil, e.ErrNotFound
	}
	return job, nil
}

// ListJobs returns every job to staff and only OPEN jobs to everyone else.
func (s *PipelineService) ListJobs(ctx context.Context, actor *tracker.Actor) ([]models.Job, error) {
	var filter *models.JobStatus
	if tracker.RequireStaff(actor) != nil {
		filter = utils.Ptr(models.JobOpen)
	}
	jobs, err := s.repo.ListJobs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// TransitionJob moves a job to a new publication status.
func (s *PipelineService) TransitionJob(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.JobStatus) (*models.Job, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if err := tracker.CheckJob(actor, job.Status, to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateJobStatus(ctx, id, job.Status, to); err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	from := job.Status
	job.Status = to
	s.logger.Info("job status changed",
		zap.String("job_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.emit(events.New(events.JobStatusChanged, events.EntityJob, id, uuid.Nil, string(from), string(to), actor.UserID))
	return job, nil
}
