package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultInterviewMinutes = 60

// ErrAssessmentExists is returned for a second assessment of one interview.
var ErrAssessmentExists = fmt.Errorf("%w: assessment already exists for this interview, refresh to view it", e.ErrConflict)

type ScheduleInterviewRequest struct {
	ApplicationID   uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Type            models.InterviewType
	Location        string
	MeetingLink     string
	Notes           string
}

type AssessmentRequest struct {
	InterviewID         uuid.UUID
	TechnicalRating     int
	CommunicationRating int
	CulturalFitRating   int
	OverallRating       int
	Recommendation      models.Recommendation
	Strengths           string
	Weaknesses          string
	Notes               string
}

// ScheduleInterview creates a SCHEDULED interview for a REVIEWED application,
// copying the candidate and job from the application.
func (s *PipelineService) ScheduleInterview(ctx context.Context, actor *tracker.Actor, req ScheduleInterviewRequest) (*models.Interview, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	if req.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", e.ErrInvalidInput)
	}
	if req.DurationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration must be positive", e.ErrInvalidInput)
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = defaultInterviewMinutes
	}
	if req.Type == "" {
		return nil, fmt.Errorf("%w: interview type is required", e.ErrInvalidInput)
	}
	interviewType, err := models.ParseInterviewType(string(req.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	req.Type = interviewType

	app, err := s.loadApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := tracker.CanScheduleInterview(actor, app.Status); err != nil {
		return nil, err
	}

	interview := &models.Interview{
		ID:              uuid.New(),
		ApplicationID:   app.ID,
		JobID:           app.JobID,
		CandidateName:   app.CandidateName,
		CandidateEmail:  app.CandidateEmail,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Status:          models.InterviewScheduled,
		Location:        strings.TrimSpace(req.Location),
		MeetingLink:     strings.TrimSpace(req.MeetingLink),
		Notes:           req.Notes,
	}
	if err := s.repo.CreateInterview(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	s.logger.Info("interview scheduled",
		zap.String("interview_id", interview.ID.String()),
		zap.String("application_id", app.ID.String()),
		zap.Time("scheduled_at", interview.ScheduledAt),
	)
	s.emit(events.New(events.InterviewScheduled, events.EntityInterview, interview.ID, app.ID,
		"", string(interview.Status), actor.UserID))
	return interview, nil
}

func (s *PipelineService) GetInterview(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Interview, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	return s.loadInterview(ctx, id)
}

// TransitionInterview applies a manual interview status change.
func (s *PipelineService) TransitionInterview(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.InterviewStatus) (*models.Interview, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	interview, err := s.loadInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tracker.CheckInterview(actor, interview.Status, to); err != nil {
		return nil, err
	}
	return s.moveInterview(ctx, actor, interview, to)
}

// JoinInterview starts a SCHEDULED interview. Joining one that is already
// IN_PROGRESS returns it unchanged.
func (s *PipelineService) JoinInterview(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Interview, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	interview, err := s.loadInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	if interview.Status == models.InterviewInProgress {
		return interview, nil
	}
	if err := tracker.CheckInterview(actor, interview.Status, models.InterviewInProgress); err != nil {
		return nil, err
	}
	return s.moveInterview(ctx, actor, interview, models.InterviewInProgress)
}

func (s *PipelineService) moveInterview(ctx context.Context, actor *tracker.Actor, interview *models.Interview, to models.InterviewStatus) (*models.Interview, error) {
	if err := s.repo.UpdateInterviewStatus(ctx, interview.ID, interview.Status, to); err != nil {
		return nil, fmt.Errorf("failed to update interview status: %w", err)
	}

	from := interview.Status
	interview.Status = to
	interview.UpdatedAt = s.now()
	s.logger.Info("interview status changed",
		zap.String("interview_id", interview.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.emit(events.New(events.InterviewStatusChanged, events.EntityInterview, interview.ID, interview.ApplicationID,
		string(from), string(to), actor.UserID))
	return interview, nil
}

// SubmitAssessment attaches the single assessment of a COMPLETED interview.
// A second submission fails with ErrAssessmentExists and leaves the first
// one untouched.
func (s *PipelineService) SubmitAssessment(ctx context.Context, actor *tracker.Actor, req AssessmentRequest) (*models.Assessment, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	ratings := []struct {
		name  string
		value int
	}{
		{"technical", req.TechnicalRating},
		{"communication", req.CommunicationRating},
		{"cultural fit", req.CulturalFitRating},
		{"overall", req.OverallRating},
	}
	for _, r := range ratings {
		if r.value < 1 || r.value > 10 {
			return nil, fmt.Errorf("%w: %s rating must be between 1 and 10", e.ErrInvalidInput, r.name)
		}
	}
	if req.Recommendation == "" {
		return nil, fmt.Errorf("%w: recommendation is required", e.ErrInvalidInput)
	}
	recommendation, err := models.ParseRecommendation(string(req.Recommendation))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	req.Recommendation = recommendation

	interview, err := s.loadInterview(ctx, req.InterviewID)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.GetAssessmentByInterview(ctx, interview.ID)
	switch {
	case err == nil:
		return nil, ErrAssessmentExists
	case !errors.Is(err, e.ErrNotFound):
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}

	if err := tracker.CanAssess(actor, interview.Status); err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		ID:                  uuid.New(),
		InterviewID:         interview.ID,
		TechnicalRating:     req.TechnicalRating,
		CommunicationRating: req.CommunicationRating,
		CulturalFitRating:   req.CulturalFitRating,
		OverallRating:       req.OverallRating,
		Recommendation:      req.Recommendation,
		Strengths:           req.Strengths,
		Weaknesses:          req.Weaknesses,
		Notes:               req.Notes,
		CreatedBy:           actor.UserID,
	}
	if err := s.repo.CreateAssessment(ctx, assessment); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, ErrAssessmentExists
		}
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.emit(events.New(events.AssessmentSubmitted, events.EntityAssessment, assessment.ID, interview.ApplicationID,
		"", string(assessment.Recommendation), actor.UserID))
	return assessment, nil
}

func (s *PipelineService) GetAssessment(ctx context.Context, actor *tracker.Actor, interviewID uuid.UUID) (*models.Assessment, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	if _, err := s.loadInterview(ctx, interviewID); err != nil {
		return nil, err
	}
	assessment, err := s.repo.GetAssessmentByInterview(ctx, interviewID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

func (s *PipelineService) loadInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	interview, err := s.repo.GetInterview(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	return interview, nil
}
