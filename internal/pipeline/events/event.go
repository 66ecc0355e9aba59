// Package events publishes recruitment pipeline events to Kafka and consumes
// them back into the persisted audit trail.
package events

import (
	"context"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/google/uuid"
)

type EventType string

const (
	JobCreated               EventType = "job_created"
	JobStatusChanged         EventType = "job_status_changed"
	ApplicationSubmitted     EventType = "application_submitted"
	ApplicationStatusChanged EventType = "application_status_changed"
	InterviewScheduled       EventType = "interview_scheduled"
	InterviewStatusChanged   EventType = "interview_status_changed"
	AssessmentSubmitted      EventType = "assessment_submitted"
	OfferCreated             EventType = "offer_created"
	OfferStatusChanged       EventType = "offer_status_changed"
	CandidateHired           EventType = "candidate_hired"
)

// Entity names used in Event.EntityType.
const (
	EntityJob         = "job"
	EntityApplication = "application"
	EntityInterview   = "interview"
	EntityAssessment  = "assessment"
	EntityOffer       = "offer"
	EntityEmployee    = "employee"
)

// Event describes one change in the pipeline. From is empty for creations.
type Event struct {
	ID            uuid.UUID
	Type          EventType
	EntityType    string
	EntityID      uuid.UUID
	ApplicationID uuid.UUID
	From          string
	To            string
	ActorID       uuid.UUID
	OccurredAt    time.Time
}

// New builds an event with a fresh id and the current time.
func New(eventType EventType, entityType string, entityID, applicationID uuid.UUID, from, to string, actorID uuid.UUID) Event {
	return Event{
		ID:            uuid.New(),
		Type:          eventType,
		EntityType:    entityType,
		EntityID:      entityID,
		ApplicationID: applicationID,
		From:          from,
		To:            to,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Key is the Kafka partition key; events of one application stay ordered.
func (ev Event) Key() string {
	if ev.ApplicationID != uuid.Nil {
		return ev.ApplicationID.String()
	}
	return ev.EntityID.String()
}

// Record converts the event into its audit row.
func (ev Event) Record() *models.PipelineEvent {
	return &models.PipelineEvent{
		ID:            ev.ID,
		Type:          string(ev.Type),
		EntityType:    ev.EntityType,
		EntityID:      ev.EntityID,
		ApplicationID: ev.ApplicationID,
		FromStatus:    ev.From,
		ToStatus:      ev.To,
		ActorID:       ev.ActorID,
		OccurredAt:    ev.OccurredAt,
	}
}

// Recorder persists audit rows.
type Recorder interface {
	RecordEvent(ctx context.Context, event *models.PipelineEvent) error
}

// RecordTo returns a consumer handler storing every event through r.
func RecordTo(r Recorder) func(context.Context, Event) error {
	return func(ctx context.Context, ev Event) error {
		return r.RecordEvent(ctx, ev.Record())
	}
}
