package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is a published (or drafted) position candidates can apply to.
type Job struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Title          string         `gorm:"size:200;not null"`
	Department     string         `gorm:"size:200"`
	Location       string         `gorm:"size:200"`
	EmploymentType EmploymentType `gorm:"size:20"`
	SalaryMin      int64          `gorm:"check:salary_min >= 0"`
	SalaryMax      int64          `gorm:"check:salary_max >= 0"`
	Description    string         `gorm:"type:text"`
	Status         JobStatus      `gorm:"size:20;index;not null"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Application is a candidate's submission for a Job.
type Application struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	JobID          uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_job_email;not null"`
	Job            *Job              `gorm:"constraint:OnDelete:CASCADE"`
	CandidateName  string            `gorm:"size:200;not null"`
	CandidateEmail string            `gorm:"size:320;uniqueIndex:idx_job_email;index;not null"`
	CandidatePhone string            `gorm:"size:50"`
	CoverLetter    string            `gorm:"type:text"`
	ResumeRef      string            `gorm:"size:1024"`
	Status         ApplicationStatus `gorm:"size:20;index;not null"`
	AppliedAt      time.Time
	UpdatedAt      time.Time
}

// Interview is a scheduled conversation with the candidate of an Application.
// Candidate and job fields are copied from the Application when the interview
// is scheduled; the Application's candidate identity never changes afterwards.
type Interview struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ApplicationID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Application     *Application    `gorm:"constraint:OnDelete:CASCADE"`
	JobID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	CandidateName   string          `gorm:"size:200"`
	CandidateEmail  string          `gorm:"size:320"`
	ScheduledAt     time.Time       `gorm:"not null"`
	DurationMinutes int             `gorm:"check:duration_minutes > 0"`
	Type            InterviewType   `gorm:"size:20;not null"`
	Status          InterviewStatus `gorm:"size:20;index;not null"`
	Location        string          `gorm:"size:500"`
	MeetingLink     string          `gorm:"size:1024"`
	Notes           string          `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Assessment is the interviewer's evaluation of a completed Interview.
// There is at most one per Interview.
type Assessment struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	InterviewID         uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	Interview           *Interview     `gorm:"constraint:OnDelete:CASCADE"`
	TechnicalRating     int            `gorm:"check:technical_rating BETWEEN 1 AND 10"`
	CommunicationRating int            `gorm:"check:communication_rating BETWEEN 1 AND 10"`
	CulturalFitRating   int            `gorm:"check:cultural_fit_rating BETWEEN 1 AND 10"`
	OverallRating       int            `gorm:"check:overall_rating BETWEEN 1 AND 10"`
	Recommendation      Recommendation `gorm:"size:20;not null"`
	Strengths           string         `gorm:"type:text"`
	Weaknesses          string         `gorm:"type:text"`
	Notes               string         `gorm:"type:text"`
	CreatedBy           uuid.UUID      `gorm:"type:uuid"`
	CreatedAt           time.Time
}

// Offer is an employment proposal made for an Application in OFFERED.
type Offer struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ApplicationID  uuid.UUID    `gorm:"type:uuid;uniqueIndex;not null"`
	Application    *Application `gorm:"constraint:OnDelete:CASCADE"`
	JobID          uuid.UUID    `gorm:"type:uuid;index;not null"`
	CandidateName  string       `gorm:"size:200"`
	CandidateEmail string       `gorm:"size:320"`
	Position       string       `gorm:"size:200;not null"`
	Department     string       `gorm:"size:200"`
	Salary         int64        `gorm:"check:salary > 0"`
	StartDate      time.Time
	ExpiresAt      time.Time   `gorm:"index"`
	Status         OfferStatus `gorm:"size:20;index;not null"`
	Notes          string      `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Expired reports whether the offer's expiry date lies before now.
func (o *Offer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && o.ExpiresAt.Before(now)
}

// Employee is created from an accepted Offer by the hire action.
type Employee struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	EmployeeNumber string         `gorm:"size:32;uniqueIndex;not null"`
	OfferID        uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	UserID         uuid.UUID      `gorm:"type:uuid;index"`
	Name           string         `gorm:"size:200;not null"`
	Email          string         `gorm:"size:320;not null"`
	Department     string         `gorm:"size:200"`
	Position       string         `gorm:"size:200"`
	Salary         int64          `gorm:"check:salary >= 0"`
	HireDate       time.Time
	Status         EmployeeStatus `gorm:"size:20;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// User is an account able to authenticate against the service.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"size:320;uniqueIndex;not null"`
	Name         string    `gorm:"size:200"`
	PasswordHash string    `gorm:"size:100;not null"`
	Role         Role      `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PipelineEvent is one persisted entry of the pipeline audit trail.
type PipelineEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type          string    `gorm:"size:50;index;not null"`
	EntityType    string    `gorm:"size:20;not null"`
	EntityID      uuid.UUID `gorm:"type:uuid;index;not null"`
	ApplicationID uuid.UUID `gorm:"type:uuid;index"`
	FromStatus    string    `gorm:"size:20"`
	ToStatus      string    `gorm:"size:20"`
	ActorID       uuid.UUID `gorm:"type:uuid"`
	OccurredAt    time.Time `gorm:"index"`
}

// AllModels lists every table managed by the repository, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Job{},
		&Application{},
		&Interview{},
		&Assessment{},
		&Offer{},
		&Employee{},
		&PipelineEvent{},
	}
}
