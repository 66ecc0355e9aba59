package controller

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplyRequest is a public job application.
type ApplyRequest struct {
	JobID          uuid.UUID
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	CoverLetter    string
	ResumeRef      string
}

// Apply submits an application to an OPEN job. It does not require an
// authenticated caller.
func (s *PipelineService) Apply(ctx context.Context, actor *tracker.Actor, req ApplyRequest) (*models.Application, error) {
	name := strings.TrimSpace(req.CandidateName)
	if name == "" {
		return nil, fmt.Errorf("%w: candidate name is required", e.ErrInvalidInput)
	}
	email, err := normalizeEmail(req.CandidateEmail)
	if err != nil {
		return nil, err
	}

	job, err := s.repo.GetJob(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job.Status != models.JobOpen {
		return nil, fmt.Errorf("%w: job is not accepting applications", e.ErrPrecondition)
	}

	exists, err := s.repo.ApplicationExists(ctx, job.ID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check application: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s already applied to this job", e.ErrConflict, email)
	}

	app := &models.Application{
		ID:             uuid.New(),
		JobID:          job.ID,
		CandidateName:  name,
		CandidateEmail: email,
		CandidatePhone: strings.TrimSpace(req.CandidatePhone),
		CoverLetter:    req.CoverLetter,
		ResumeRef:      strings.TrimSpace(req.ResumeRef),
		Status:         models.ApplicationSubmitted,
		AppliedAt:      s.now(),
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		// a concurrent submission can pass the check above and lose on idx_job_email
		if errors.Is(err, e.ErrConflict) {
			return nil, fmt.Errorf("%w: %s already applied to this job", e.ErrConflict, email)
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.logger.Info("application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("job_id", job.ID.String()),
	)
	s.emit(events.New(events.ApplicationSubmitted, events.EntityApplication, app.ID, app.ID,
		"", string(app.Status), who(actor)))
	return app, nil
}

func (s *PipelineService) GetApplication(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Application, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	return s.loadApplication(ctx, id)
}

// ListApplications returns the applications of a job in submission order.
func (s *PipelineService) ListApplications(ctx context.Context, actor *tracker.Actor, jobID uuid.UUID) ([]models.Application, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	apps, err := s.repo.ListApplications(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// TransitionApplication applies a manual status change. Concurrent changes
// of the same application surface as ErrConflict.
func (s *PipelineService) TransitionApplication(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.ApplicationStatus) (*models.Application, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tracker.CheckApplication(actor, app.Status, to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateApplicationStatus(ctx, id, app.Status, to); err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}

	from := app.Status
	app.Status = to
	app.UpdatedAt = s.now()
	s.logger.Info("application status changed",
		zap.String("application_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.emit(events.New(events.ApplicationStatusChanged, events.EntityApplication, id, id,
		string(from), string(to), actor.UserID))
	return app, nil
}

// ListEvents returns the audit trail of an application.
func (s *PipelineService) ListEvents(ctx context.Context, actor *tracker.Actor, applicationID uuid.UUID) ([]models.PipelineEvent, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	if _, err := s.loadApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListEvents(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return list, nil
}

func (s *PipelineService) loadApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: invalid email %q", e.ErrInvalidInput, raw)
	}
	return strings.ToLower(addr.Address), nil
}
