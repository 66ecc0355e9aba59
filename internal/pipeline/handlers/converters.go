package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/controller"
	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type JobRequest struct {
	Title          string `json:"title"`
	Department     string `json:"department"`
	Location       string `json:"location"`
	EmploymentType string `json:"employmentType"`
	SalaryMin      int64  `json:"salaryMin"`
	SalaryMax      int64  `json:"salaryMax"`
	Description    string `json:"description"`
	Status         string `json:"status"`
}

type JobResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Department     string    `json:"department"`
	Location       string    `json:"location"`
	EmploymentType string    `json:"employmentType"`
	SalaryMin      int64     `json:"salaryMin"`
	SalaryMax      int64     `json:"salaryMax"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StatusRequest is the body of every PATCH transition route.
type StatusRequest struct {
	Status string `json:"status"`
}

type ApplyRequest struct {
	CandidateName  string `json:"candidateName"`
	CandidateEmail string `json:"candidateEmail"`
	CandidatePhone string `json:"candidatePhone"`
	CoverLetter    string `json:"coverLetter"`
	ResumeRef      string `json:"resumeRef"`
}

type ApplicationResponse struct {
	ID             uuid.UUID `json:"id"`
	JobID          uuid.UUID `json:"jobId"`
	CandidateName  string    `json:"candidateName"`
	CandidateEmail string    `json:"candidateEmail"`
	CandidatePhone string    `json:"candidatePhone"`
	CoverLetter    string    `json:"coverLetter"`
	ResumeRef      string    `json:"resumeRef"`
	Status         string    `json:"status"`
	NextStatuses   []string  `json:"nextStatuses"`
	AppliedAt      time.Time `json:"appliedAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type InterviewRequest struct {
	ApplicationID   uuid.UUID `json:"applicationId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Type            string    `json:"type"`
	Location        string    `json:"location"`
	MeetingLink     string    `json:"meetingLink"`
	Notes           string    `json:"notes"`
}

type InterviewResponse struct {
	ID              uuid.UUID `json:"id"`
	ApplicationID   uuid.UUID `json:"applicationId"`
	JobID           uuid.UUID `json:"jobId"`
	CandidateName   string    `json:"candidateName"`
	CandidateEmail  string    `json:"candidateEmail"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	Location        string    `json:"location"`
	MeetingLink     string    `json:"meetingLink"`
	Notes           string    `json:"notes"`
}

type AssessmentRequest struct {
	InterviewID         uuid.UUID `json:"interviewId"`
	TechnicalRating     int       `json:"technicalRating"`
	CommunicationRating int       `json:"communicationRating"`
	CulturalFitRating   int       `json:"culturalFitRating"`
	OverallRating       int       `json:"overallRating"`
	Recommendation      string    `json:"recommendation"`
	Strengths           string    `json:"strengths"`
	Weaknesses          string    `json:"weaknesses"`
	Notes               string    `json:"notes"`
}

type AssessmentResponse struct {
	ID                  uuid.UUID `json:"id"`
	InterviewID         uuid.UUID `json:"interviewId"`
	TechnicalRating     int       `json:"technicalRating"`
	CommunicationRating int       `json:"communicationRating"`
	CulturalFitRating   int       `json:"culturalFitRating"`
	OverallRating       int       `json:"overallRating"`
	Recommendation      string    `json:"recommendation"`
	Strengths           string    `json:"strengths"`
	Weaknesses          string    `json:"weaknesses"`
	Notes               string    `json:"notes"`
	CreatedAt           time.Time `json:"createdAt"`
}

type OfferRequest struct {
	ApplicationID uuid.UUID  `json:"applicationId"`
	Position      string     `json:"position"`
	Department    string     `json:"department"`
	Salary        int64      `json:"salary"`
	StartDate     *time.Time `json:"startDate"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	Notes         string     `json:"notes"`
}

type OfferResponse struct {
	ID             uuid.UUID `json:"id"`
	ApplicationID  uuid.UUID `json:"applicationId"`
	JobID          uuid.UUID `json:"jobId"`
	CandidateName  string    `json:"candidateName"`
	CandidateEmail string    `json:"candidateEmail"`
	Position       string    `json:"position"`
	Department     string    `json:"department"`
	Salary         int64     `json:"salary"`
	StartDate      time.Time `json:"startDate"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes"`
}

type HireRequest struct {
	OfferID uuid.UUID `json:"offerId"`
}

type EmployeeResponse struct {
	ID             uuid.UUID `json:"id"`
	EmployeeNumber string    `json:"employeeNumber"`
	OfferID        uuid.UUID `json:"offerId"`
	UserID         uuid.UUID `json:"userId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Department     string    `json:"department"`
	Position       string    `json:"position"`
	Salary         int64     `json:"salary"`
	HireDate       time.Time `json:"hireDate"`
	Status         string    `json:"status"`
}

type UserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type EventResponse struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	EntityType string    `json:"entityType"`
	EntityID   uuid.UUID `json:"entityId"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    uuid.UUID `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (req *JobRequest) toModel() (*models.Job, error) {
	job := &models.Job{
		Title:       req.Title,
		Department:  req.Department,
		Location:    req.Location,
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		Description: req.Description,
	}
	if req.EmploymentType != "" {
		t, err := models.ParseEmploymentType(req.EmploymentType)
		if err != nil {
			return nil, err
		}
		job.EmploymentType = t
	}
	if req.Status != "" {
		s, err := models.ParseJobStatus(req.Status)
		if err != nil {
			return nil, err
		}
		job.Status = s
	}
	return job, nil
}

func (req *InterviewRequest) toRequest() (controller.ScheduleInterviewRequest, error) {
	t, err := models.ParseInterviewType(req.Type)
	if err != nil {
		return controller.ScheduleInterviewRequest{}, err
	}
	return controller.ScheduleInterviewRequest{
		ApplicationID:   req.ApplicationID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Type:            t,
		Location:        req.Location,
		MeetingLink:     req.MeetingLink,
		Notes:           req.Notes,
	}, nil
}

func (req *AssessmentRequest) toRequest() (controller.AssessmentRequest, error) {
	rec, err := models.ParseRecommendation(req.Recommendation)
	if err != nil {
		return controller.AssessmentRequest{}, err
	}
	return controller.AssessmentRequest{
		InterviewID:         req.InterviewID,
		TechnicalRating:     req.TechnicalRating,
		CommunicationRating: req.CommunicationRating,
		CulturalFitRating:   req.CulturalFitRating,
		OverallRating:       req.OverallRating,
		Recommendation:      rec,
		Strengths:           req.Strengths,
		Weaknesses:          req.Weaknesses,
		Notes:               req.Notes,
	}, nil
}

func (req *OfferRequest) toRequest() controller.CreateOfferRequest {
	out := controller.CreateOfferRequest{
		ApplicationID: req.ApplicationID,
		Position:      req.Position,
		Department:    req.Department,
		Salary:        req.Salary,
		Notes:         req.Notes,
	}
	if req.StartDate != nil {
		out.StartDate = *req.StartDate
	}
	if req.ExpiresAt != nil {
		out.ExpiresAt = *req.ExpiresAt
	}
	return out
}

func jobToResponse(job *models.Job) *JobResponse {
	return &JobResponse{
		ID:             job.ID,
		Title:          job.Title,
		Department:     job.Department,
		Location:       job.Location,
		EmploymentType: string(job.EmploymentType),
		SalaryMin:      job.SalaryMin,
		SalaryMax:      job.SalaryMax,
		Description:    job.Description,
		Status:         string(job.Status),
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func applicationToResponse(app *models.Application) *ApplicationResponse {
	next := []string{}
	for _, s := range tracker.Next(app.Status) {
		next = append(next, string(s))
	}
	return &ApplicationResponse{
		ID:             app.ID,
		JobID:          app.JobID,
		CandidateName:  app.CandidateName,
		CandidateEmail: app.CandidateEmail,
		CandidatePhone: app.CandidatePhone,
		CoverLetter:    app.CoverLetter,
		ResumeRef:      app.ResumeRef,
		Status:         string(app.Status),
		NextStatuses:   next,
		AppliedAt:      app.AppliedAt,
		UpdatedAt:      app.UpdatedAt,
	}
}

func interviewToResponse(i *models.Interview) *InterviewResponse {
	return &InterviewResponse{
		ID:              i.ID,
		ApplicationID:   i.ApplicationID,
		JobID:           i.JobID,
		CandidateName:   i.CandidateName,
		CandidateEmail:  i.CandidateEmail,
		ScheduledAt:     i.ScheduledAt,
		DurationMinutes: i.DurationMinutes,
		Type:            string(i.Type),
		Status:          string(i.Status),
		Location:        i.Location,
		MeetingLink:     i.MeetingLink,
		Notes:           i.Notes,
	}
}

func assessmentToResponse(a *models.Assessment) *AssessmentResponse {
	return &AssessmentResponse{
		ID:                  a.ID,
		InterviewID:         a.InterviewID,
		TechnicalRating:     a.TechnicalRating,
		CommunicationRating: a.CommunicationRating,
		CulturalFitRating:   a.CulturalFitRating,
		OverallRating:       a.OverallRating,
		Recommendation:      string(a.Recommendation),
		Strengths:           a.Strengths,
		Weaknesses:          a.Weaknesses,
		Notes:               a.Notes,
		CreatedAt:           a.CreatedAt,
	}
}

func offerToResponse(o *models.Offer) *OfferResponse {
	return &OfferResponse{
		ID:             o.ID,
		ApplicationID:  o.ApplicationID,
		JobID:          o.JobID,
		CandidateName:  o.CandidateName,
		CandidateEmail: o.CandidateEmail,
		Position:       o.Position,
		Department:     o.Department,
		Salary:         o.Salary,
		StartDate:      o.StartDate,
		ExpiresAt:      o.ExpiresAt,
		Status:         string(o.Status),
		Notes:          o.Notes,
	}
}

func employeeToResponse(emp *models.Employee) *EmployeeResponse {
	return &EmployeeResponse{
		ID:             emp.ID,
		EmployeeNumber: emp.EmployeeNumber,
		OfferID:        emp.OfferID,
		UserID:         emp.UserID,
		Name:           emp.Name,
		Email:          emp.Email,
		Department:     emp.Department,
		Position:       emp.Position,
		Salary:         emp.Salary,
		HireDate:       emp.HireDate,
		Status:         string(emp.Status),
	}
}

func userToResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func eventToResponse(ev *models.PipelineEvent) *EventResponse {
	return &EventResponse{
		ID:         ev.ID,
		Type:       ev.Type,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		From:       ev.FromStatus,
		To:         ev.ToStatus,
		ActorID:    ev.ActorID,
		OccurredAt: ev.OccurredAt,
	}
}

// mapServiceError converts service errors into gRPC status errors, which the
// gateway renders with the matching HTTP status.
func (h *PipelineHandler) mapServiceError(err error) error {
	if st, ok := status.FromError(err); ok {
		return st.Err()
	}
	switch {
	case errors.Is(err, e.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, e.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, e.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrInvalidTransition), errors.Is(err, e.ErrPrecondition):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
	}
}
