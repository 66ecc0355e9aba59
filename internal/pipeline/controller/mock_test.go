package controller

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gartstein/hiring/internal/pipeline/db"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
)

// MockRepository implements Repository for unit tests. Methods without a
// function set panic through the embedded nil interface.
type MockRepository struct {
	Repository

	getJob                  func(context.Context, uuid.UUID) (*models.Job, error)
	createJob               func(context.Context, *models.Job) error
	listJobs                func(context.Context, *models.JobStatus) ([]models.Job, error)
	getApplication          func(context.Context, uuid.UUID) (*models.Application, error)
	createApplication       func(context.Context, *models.Application) error
	applicationExists       func(context.Context, uuid.UUID, string) (bool, error)
	updateApplicationStatus func(context.Context, uuid.UUID, models.ApplicationStatus, models.ApplicationStatus) error
	getInterview            func(context.Context, uuid.UUID) (*models.Interview, error)
	createInterview         func(context.Context, *models.Interview) error
	getAssessment           func(context.Context, uuid.UUID) (*models.Assessment, error)
	createAssessment        func(context.Context, *models.Assessment) error
	createOffer             func(context.Context, *models.Offer) error
	getEmployeeByOffer      func(context.Context, uuid.UUID) (*models.Employee, error)
}

func (m *MockRepository) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return m.getJob(ctx, id)
}

func (m *MockRepository) CreateJob(ctx context.Context, job *models.Job) error {
	return m.createJob(ctx, job)
}

func (m *MockRepository) ListJobs(ctx context.Context, status *models.JobStatus) ([]models.Job, error) {
	return m.listJobs(ctx, status)
}

func (m *MockRepository) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return m.getApplication(ctx, id)
}

func (m *MockRepository) CreateApplication(ctx context.Context, app *models.Application) error {
	return m.createApplication(ctx, app)
}

func (m *MockRepository) ApplicationExists(ctx context.Context, jobID uuid.UUID, email string) (bool, error) {
	return m.applicationExists(ctx, jobID, email)
}

func (m *MockRepository) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, from, to models.ApplicationStatus) error {
	return m.updateApplicationStatus(ctx, id, from, to)
}

func (m *MockRepository) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	return m.getInterview(ctx, id)
}

func (m *MockRepository) CreateInterview(ctx context.Context, interview *models.Interview) error {
	return m.createInterview(ctx, interview)
}

func (m *MockRepository) GetAssessmentByInterview(ctx context.Context, interviewID uuid.UUID) (*models.Assessment, error) {
	return m.getAssessment(ctx, interviewID)
}

func (m *MockRepository) CreateAssessment(ctx context.Context, assessment *models.Assessment) error {
	return m.createAssessment(ctx, assessment)
}

func (m *MockRepository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return m.createOffer(ctx, offer)
}

func (m *MockRepository) GetEmployeeByOffer(ctx context.Context, offerID uuid.UUID) (*models.Employee, error) {
	return m.getEmployeeByOffer(ctx, offerID)
}

func (m *MockRepository) WithTransaction(_ context.Context, _ func(*db.Repository) error) error {
	return fmt.Errorf("transactions are not supported by the mock")
}

func (m *MockRepository) Close() error {
	return nil
}

// MockProducer records produced events.
type MockProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockProducer) Produce(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockProducer) Types() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.EventType, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

var (
	hrActor        = &tracker.Actor{UserID: uuid.New(), Role: models.RoleHRManager}
	adminActor     = &tracker.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	candidateActor = &tracker.Actor{UserID: uuid.New(), Role: models.RoleCandidate}
	employeeActor  = &tracker.Actor{UserID: uuid.New(), Role: models.RoleEmployee}
)

var testOptions = Options{DefaultEmployeePassword: "welcome-aboard", BcryptCost: bcrypt.MinCost}

func newMockService(t *testing.T, repo *MockRepository) (*PipelineService, *MockProducer) {
	producer := &MockProducer{}
	return NewPipelineService(repo, producer, zaptest.NewLogger(t), testOptions), producer
}

// newSQLiteService returns a service backed by an isolated in-memory database.
func newSQLiteService(t *testing.T) (*PipelineService, *db.Repository, *MockProducer) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	repo, err := db.Open(sqlite.Open(dsn))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })

	producer := &MockProducer{}
	return NewPipelineService(repo, producer, zaptest.NewLogger(t), testOptions), repo, producer
}
