// Package controller implements the recruitment pipeline service layer:
// it validates input, consults the state tracker, runs repository operations
// (transactionally where a change spans several rows) and emits events.
package controller

import (
	"context"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/db"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the storage interface of the pipeline.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, status *models.JobStatus) ([]models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, from, to models.JobStatus) error

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplications(ctx context.Context, jobID uuid.UUID) ([]models.Application, error)
	ApplicationExists(ctx context.Context, jobID uuid.UUID, email string) (bool, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, from, to models.ApplicationStatus) error

	CreateInterview(ctx context.Context, interview *models.Interview) error
	GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error)
	UpdateInterviewStatus(ctx context.Context, id uuid.UUID, from, to models.InterviewStatus) error

	CreateAssessment(ctx context.Context, assessment *models.Assessment) error
	GetAssessmentByInterview(ctx context.Context, interviewID uuid.UUID) (*models.Assessment, error)

	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	UpdateOfferStatus(ctx context.Context, id uuid.UUID, from, to models.OfferStatus) error
	ListOverdueOffers(ctx context.Context, now time.Time, limit int) ([]models.Offer, error)

	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	GetEmployeeByOffer(ctx context.Context, offerID uuid.UUID) (*models.Employee, error)

	ListEvents(ctx context.Context, applicationID uuid.UUID) ([]models.PipelineEvent, error)

	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// Options tune the service. Zero values fall back to defaults.
type Options struct {
	// DefaultEmployeePassword is the initial password of accounts created by
	// the hire action.
	DefaultEmployeePassword string
	// BcryptCost is the cost used for password hashes.
	BcryptCost int
}

const defaultEmployeePassword = "ChangeMe!2024"

// PipelineService provides the pipeline operations on top of a repository
// and an event producer.
type PipelineService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	opts     Options
	now      func() time.Time
}

// NewPipelineService constructs a PipelineService with a repository,
// an event producer, and a logger.
func NewPipelineService(repo Repository, producer EventProducer, logger *zap.Logger, opts Options) *PipelineService {
	if opts.DefaultEmployeePassword == "" {
		opts.DefaultEmployeePassword = defaultEmployeePassword
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &PipelineService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("pipeline_service"),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// emit hands events to the producer; Produce never blocks.
func (s *PipelineService) emit(evs ...events.Event) {
	for _, ev := range evs {
		s.producer.Produce(ev)
	}
}

// who returns the user id recorded on events for the actor.
func who(actor *tracker.Actor) uuid.UUID {
	if actor == nil {
		return uuid.Nil
	}
	return actor.UserID
}
