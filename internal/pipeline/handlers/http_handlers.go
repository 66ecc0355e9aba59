package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gartstein/hiring/internal/pipeline/auth"
	"github.com/gartstein/hiring/internal/pipeline/controller"
	"github.com/gartstein/hiring/internal/pipeline/export"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PipelineController defines the business logic the HTTP routes invoke.
type PipelineController interface {
	CreateJob(ctx context.Context, actor *tracker.Actor, job *models.Job) (*models.Job, error)
	GetJob(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, actor *tracker.Actor) ([]models.Job, error)
	TransitionJob(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.JobStatus) (*models.Job, error)

	Apply(ctx context.Context, actor *tracker.Actor, req controller.ApplyRequest) (*models.Application, error)
	GetApplication(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Application, error)
	ListApplications(ctx context.Context, actor *tracker.Actor, jobID uuid.UUID) ([]models.Application, error)
	TransitionApplication(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.ApplicationStatus) (*models.Application, error)
	ListEvents(ctx context.Context, actor *tracker.Actor, applicationID uuid.UUID) ([]models.PipelineEvent, error)
	ExportApplications(ctx context.Context, actor *tracker.Actor, jobID uuid.UUID, w io.Writer) error

	ScheduleInterview(ctx context.Context, actor *tracker.Actor, req controller.ScheduleInterviewRequest) (*models.Interview, error)
	GetInterview(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Interview, error)
	TransitionInterview(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.InterviewStatus) (*models.Interview, error)
	JoinInterview(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Interview, error)
	SubmitAssessment(ctx context.Context, actor *tracker.Actor, req controller.AssessmentRequest) (*models.Assessment, error)
	GetAssessment(ctx context.Context, actor *tracker.Actor, interviewID uuid.UUID) (*models.Assessment, error)

	CreateOffer(ctx context.Context, actor *tracker.Actor, req controller.CreateOfferRequest) (*models.Offer, error)
	GetOffer(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Offer, error)
	TransitionOffer(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.OfferStatus) (*models.Offer, error)

	HireCandidate(ctx context.Context, actor *tracker.Actor, offerID uuid.UUID) (*models.Employee, bool, error)
	GetEmployee(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Employee, error)

	CreateUser(ctx context.Context, actor *tracker.Actor, req controller.CreateUserRequest) (*models.User, error)
}

// PipelineHandler serves the REST API on a grpc-gateway ServeMux.
type PipelineHandler struct {
	service PipelineController
	logger  *zap.Logger
	mux     *runtime.ServeMux
}

// NewPipelineHandler registers every route on a fresh ServeMux.
func NewPipelineHandler(service PipelineController, logger *zap.Logger) (*PipelineHandler, error) {
	h := &PipelineHandler{
		service: service,
		logger:  logger.Named("http_handler"),
		mux:     runtime.NewServeMux(),
	}

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/v1/jobs", h.createJob},
		{http.MethodGet, "/v1/jobs", h.listJobs},
		{http.MethodGet, "/v1/jobs/{id}", h.getJob},
		{http.MethodPatch, "/v1/jobs/{id}", h.transitionJob},
		{http.MethodPost, "/v1/jobs/{id}/applications", h.apply},
		{http.MethodGet, "/v1/jobs/{id}/applications", h.listApplications},
		{http.MethodGet, "/v1/jobs/{id}/applications/export", h.exportApplications},
		{http.MethodGet, "/v1/applications/{id}", h.getApplication},
		{http.MethodPatch, "/v1/applications/{id}", h.transitionApplication},
		{http.MethodGet, "/v1/applications/{id}/events", h.listEvents},
		{http.MethodPost, "/v1/interviews", h.scheduleInterview},
		{http.MethodGet, "/v1/interviews/{id}", h.getInterview},
		{http.MethodPatch, "/v1/interviews/{id}", h.transitionInterview},
		{http.MethodPost, "/v1/interviews/{id}/join", h.joinInterview},
		{http.MethodGet, "/v1/interviews/{id}/assessment", h.getAssessment},
		{http.MethodPost, "/v1/assessments", h.submitAssessment},
		{http.MethodPost, "/v1/offers", h.createOffer},
		{http.MethodGet, "/v1/offers/{id}", h.getOffer},
		{http.MethodPatch, "/v1/offers/{id}", h.transitionOffer},
		{http.MethodPost, "/v1/employees", h.hireCandidate},
		{http.MethodGet, "/v1/employees/{id}", h.getEmployee},
		{http.MethodPost, "/v1/users", h.createUser},
	}
	for _, route := range routes {
		if err := h.mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", route.method, route.pattern, err)
		}
	}
	return h, nil
}

// Mux returns the routes without authentication.
func (h *PipelineHandler) Mux() *runtime.ServeMux {
	return h.mux
}

func (h *PipelineHandler) createJob(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req JobRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	job, err := req.toModel()
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	created, err := h.service.CreateJob(r.Context(), auth.ActorFromContext(r.Context()), job)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, jobToResponse(created))
}

func (h *PipelineHandler) listJobs(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	jobs, err := h.service.ListJobs(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]*JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobToResponse(&jobs[i]))
	}
	h.respond(w, r, http.StatusOK, out)
}

func (h *PipelineHandler) getJob(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	job, err := h.service.GetJob(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jobToResponse(job))
}

func (h *PipelineHandler) transitionJob(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, raw, err := h.statusRequest(r, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := models.ParseJobStatus(raw)
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	job, err := h.service.TransitionJob(r.Context(), auth.ActorFromContext(r.Context()), id, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jobToResponse(job))
}

func (h *PipelineHandler) apply(w http.ResponseWriter, r *http.Request, params map[string]string) {
	jobID, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ApplyRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	app, err := h.service.Apply(r.Context(), auth.ActorFromContext(r.Context()), controller.ApplyRequest{
		JobID:          jobID,
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		CandidatePhone: req.CandidatePhone,
		CoverLetter:    req.CoverLetter,
		ResumeRef:      req.ResumeRef,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, applicationToResponse(app))
}

func (h *PipelineHandler) listApplications(w http.ResponseWriter, r *http.Request, params map[string]string) {
	jobID, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apps, err := h.service.ListApplications(r.Context(), auth.ActorFromContext(r.Context()), jobID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]*ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, applicationToResponse(&apps[i]))
	}
	h.respond(w, r, http.StatusOK, out)
}

func (h *PipelineHandler) exportApplications(w http.ResponseWriter, r *http.Request, params map[string]string) {
	jobID, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.service.ExportApplications(r.Context(), auth.ActorFromContext(r.Context()), jobID, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="applications-%s.xlsx"`, jobID))
	h.respond(w, r, http.StatusOK, &httpbody.HttpBody{
		ContentType: export.ContentType,
		Data:        buf.Bytes(),
	})
}

func (h *PipelineHandler) getApplication(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	app, err := h.service.GetApplication(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, applicationToResponse(app))
}

func (h *PipelineHandler) transitionApplication(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, raw, err := h.statusRequest(r, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := models.ParseApplicationStatus(raw)
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	app, err := h.service.TransitionApplication(r.Context(), auth.ActorFromContext(r.Context()), id, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, applicationToResponse(app))
}

func (h *PipelineHandler) listEvents(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.service.ListEvents(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]*EventResponse, 0, len(list))
	for i := range list {
		out = append(out, eventToResponse(&list[i]))
	}
	h.respond(w, r, http.StatusOK, out)
}

func (h *PipelineHandler) scheduleInterview(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req InterviewRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := req.toRequest()
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	interview, err := h.service.ScheduleInterview(r.Context(), auth.ActorFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, interviewToResponse(interview))
}

func (h *PipelineHandler) getInterview(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	interview, err := h.service.GetInterview(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, interviewToResponse(interview))
}

func (h *PipelineHandler) transitionInterview(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, raw, err := h.statusRequest(r, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := models.ParseInterviewStatus(raw)
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	interview, err := h.service.TransitionInterview(r.Context(), auth.ActorFromContext(r.Context()), id, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, interviewToResponse(interview))
}

func (h *PipelineHandler) joinInterview(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	interview, err := h.service.JoinInterview(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, interviewToResponse(interview))
}

func (h *PipelineHandler) getAssessment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	assessment, err := h.service.GetAssessment(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, assessmentToResponse(assessment))
}

func (h *PipelineHandler) submitAssessment(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req AssessmentRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := req.toRequest()
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	assessment, err := h.service.SubmitAssessment(r.Context(), auth.ActorFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, assessmentToResponse(assessment))
}

func (h *PipelineHandler) createOffer(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req OfferRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	offer, err := h.service.CreateOffer(r.Context(), auth.ActorFromContext(r.Context()), req.toRequest())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, offerToResponse(offer))
}

func (h *PipelineHandler) getOffer(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offer, err := h.service.GetOffer(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, offerToResponse(offer))
}

func (h *PipelineHandler) transitionOffer(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, raw, err := h.statusRequest(r, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := models.ParseOfferStatus(raw)
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	offer, err := h.service.TransitionOffer(r.Context(), auth.ActorFromContext(r.Context()), id, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, offerToResponse(offer))
}

// hireCandidate answers 201 for a new employee and 200 when the offer was
// already hired.
func (h *PipelineHandler) hireCandidate(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req HireRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.OfferID == uuid.Nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, "offerId is required"))
		return
	}
	employee, created, err := h.service.HireCandidate(r.Context(), auth.ActorFromContext(r.Context()), req.OfferID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	h.respond(w, r, code, employeeToResponse(employee))
}

func (h *PipelineHandler) getEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	employee, err := h.service.GetEmployee(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, employeeToResponse(employee))
}

func (h *PipelineHandler) createUser(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req UserRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	user, err := h.service.CreateUser(r.Context(), auth.ActorFromContext(r.Context()), controller.CreateUserRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, userToResponse(user))
}

func (h *PipelineHandler) statusRequest(r *http.Request, params map[string]string) (uuid.UUID, string, error) {
	id, err := pathID(params)
	if err != nil {
		return uuid.Nil, "", err
	}
	var req StatusRequest
	if err := h.decode(r, &req); err != nil {
		return uuid.Nil, "", err
	}
	return id, req.Status, nil
}

func (h *PipelineHandler) decode(r *http.Request, v interface{}) error {
	inbound, _ := runtime.MarshalerForRequest(h.mux, r)
	if err := inbound.NewDecoder(r.Body).Decode(v); err != nil {
		return status.Error(codes.InvalidArgument, "malformed request body")
	}
	return nil
}

func (h *PipelineHandler) respond(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	_, outbound := runtime.MarshalerForRequest(h.mux, r)
	buf, err := outbound.Marshal(v)
	if err != nil {
		h.fail(w, r, fmt.Errorf("failed to marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", outbound.ContentType(v))
	w.WriteHeader(code)
	if _, err := w.Write(buf); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}

// fail renders err through the gateway error handler.
func (h *PipelineHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	_, outbound := runtime.MarshalerForRequest(h.mux, r)
	runtime.HTTPError(r.Context(), h.mux, outbound, w, r, h.mapServiceError(err))
}

func pathID(params map[string]string) (uuid.UUID, error) {
	id, err := uuid.Parse(params["id"])
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "invalid id")
	}
	return id, nil
}
