// Package db implements the gorm-backed repository for the recruitment
// pipeline. Status columns are only ever written through compare-and-set
// updates so two concurrent transitions of the same row cannot both succeed.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func NewRepository(cfg *Config) (*Repository, error) {
	return Open(postgres.Open(cfg.DSN()))
}

// Open connects through the given dialector and migrates every pipeline table.
func Open(dialector gorm.Dialector) (*Repository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) create(ctx context.Context, value interface{}, what string) error {
	result := r.db.WithContext(ctx).Create(value)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s already exists", e.ErrConflict, what)
		}
		return result.Error
	}
	return nil
}

func (r *Repository) first(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	result := r.db.WithContext(ctx).Where(query, args...).First(dest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return e.ErrNotFound
		}
		return result.Error
	}
	return nil
}

// compareAndSetStatus moves the row with the given id from one status to
// another. Zero affected rows on an existing row means someone else changed
// the status first.
func (r *Repository) compareAndSetStatus(ctx context.Context, model interface{}, id uuid.UUID, from, to string) error {
	result := r.db.WithContext(ctx).Model(model).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return e.ErrNotFound
	}
	return fmt.Errorf("%w: status is no longer %s", e.ErrConflict, from)
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.create(ctx, user, "user")
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.first(ctx, &user, "id = ?", id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.first(ctx, &user, "email = ?", email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) UpdateUserRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	return r.create(ctx, job, "job")
}

func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.first(ctx, &job, "id = ?", id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns jobs newest first, optionally restricted to one status.
func (r *Repository) ListJobs(ctx context.Context, status *models.JobStatus) ([]models.Job, error) {
	var jobs []models.Job
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *Repository) UpdateJobStatus(ctx context.Context, id uuid.UUID, from, to models.JobStatus) error {
	return r.compareAndSetStatus(ctx, &models.Job{}, id, string(from), string(to))
}

func (r *Repository) CreateApplication(ctx context.Context, app *models.Application) error {
	return r.create(ctx, app, "application")
}

func (r *Repository) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.first(ctx, &app, "id = ?", id); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListApplications returns the applications of a job in submission order.
func (r *Repository) ListApplications(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("applied_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// ApplicationExists reports whether the email already applied to the job.
func (r *Repository) ApplicationExists(ctx context.Context, jobID uuid.UUID, email string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("job_id = ? AND candidate_email = ?", jobID, email).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, from, to models.ApplicationStatus) error {
	return r.compareAndSetStatus(ctx, &models.Application{}, id, string(from), string(to))
}

func (r *Repository) CreateInterview(ctx context.Context, interview *models.Interview) error {
	return r.create(ctx, interview, "interview")
}

func (r *Repository) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	var interview models.Interview
	if err := r.first(ctx, &interview, "id = ?", id); err != nil {
		return nil, err
	}
	return &interview, nil
}

func (r *Repository) UpdateInterviewStatus(ctx context.Context, id uuid.UUID, from, to models.InterviewStatus) error {
	return r.compareAndSetStatus(ctx, &models.Interview{}, id, string(from), string(to))
}

func (r *Repository) CreateAssessment(ctx context.Context, assessment *models.Assessment) error {
	return r.create(ctx, assessment, "assessment for this interview")
}

func (r *Repository) GetAssessmentByInterview(ctx context.Context, interviewID uuid.UUID) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.first(ctx, &assessment, "interview_id = ?", interviewID); err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *Repository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return r.create(ctx, offer, "offer for this application")
}

func (r *Repository) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.first(ctx, &offer, "id = ?", id); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *Repository) GetOfferByApplication(ctx context.Context, applicationID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.first(ctx, &offer, "application_id = ?", applicationID); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *Repository) UpdateOfferStatus(ctx context.Context, id uuid.UUID, from, to models.OfferStatus) error {
	return r.compareAndSetStatus(ctx, &models.Offer{}, id, string(from), string(to))
}

// ListOverdueOffers returns up to limit PENDING or SENT offers whose expiry
// date is before now.
func (r *Repository) ListOverdueOffers(ctx context.Context, now time.Time, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at < ?", []string{string(models.OfferPending), string(models.OfferSent)}, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	return r.create(ctx, employee, "employee for this offer")
}

func (r *Repository) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if err := r.first(ctx, &employee, "id = ?", id); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *Repository) CountEmployees(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Employee{}).Count(&count).Error
	return count, err
}

func (r *Repository) GetEmployeeByOffer(ctx context.Context, offerID uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if err := r.first(ctx, &employee, "offer_id = ?", offerID); err != nil {
		return nil, err
	}
	return &employee, nil
}

// RecordEvent stores an audit entry. Replays of the same event id are ignored.
func (r *Repository) RecordEvent(ctx context.Context, event *models.PipelineEvent) error {
	err := r.create(ctx, event, "event")
	if errors.Is(err, e.ErrConflict) {
		return nil
	}
	return err
}

func (r *Repository) ListEvents(ctx context.Context, applicationID uuid.UUID) ([]models.PipelineEvent, error) {
	var list []models.PipelineEvent
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("occurred_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
