// Package tracker holds the recruitment pipeline state machine: the legal
// status transitions for jobs, applications, interviews and offers, and the
// roles allowed to trigger them. It is pure and never touches storage.
package tracker

import (
	"fmt"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a pipeline operation.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
}

// System is the actor used by background jobs such as offer expiry.
var System = Actor{Role: models.RoleAdmin}

var jobTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobDraft:  {models.JobOpen, models.JobClosed},
	models.JobOpen:   {models.JobPaused, models.JobClosed},
	models.JobPaused: {models.JobOpen, models.JobClosed},
}

// ACCEPTED -> HIRED is only reachable through the hire action.
var applicationTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationSubmitted: {models.ApplicationReviewed, models.ApplicationRejected},
	models.ApplicationReviewed:  {models.ApplicationInterview, models.ApplicationOffered, models.ApplicationRejected},
	models.ApplicationInterview: {models.ApplicationOffered, models.ApplicationRejected},
	models.ApplicationOffered:   {models.ApplicationAccepted, models.ApplicationRejected},
}

var interviewTransitions = map[models.InterviewStatus][]models.InterviewStatus{
	models.InterviewScheduled:  {models.InterviewInProgress, models.InterviewCompleted, models.InterviewCancelled},
	models.InterviewInProgress: {models.InterviewCompleted, models.InterviewCancelled},
}

var offerTransitions = map[models.OfferStatus][]models.OfferStatus{
	models.OfferPending: {models.OfferSent, models.OfferExpired},
	models.OfferSent:    {models.OfferAccepted, models.OfferRejected, models.OfferExpired},
}

// RequireStaff fails unless the actor is an ADMIN or HR_MANAGER.
func RequireStaff(actor *Actor) error {
	if actor == nil {
		return e.ErrUnauthenticated
	}
	if !actor.Role.IsStaff() {
		return fmt.Errorf("%w: role %s may not change pipeline state", e.ErrForbidden, actor.Role)
	}
	return nil
}

// RequireAdmin fails unless the actor is an ADMIN.
func RequireAdmin(actor *Actor) error {
	if actor == nil {
		return e.ErrUnauthenticated
	}
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: admin role required", e.ErrForbidden)
	}
	return nil
}

func CheckJob(actor *Actor, from, to models.JobStatus) error {
	return check(actor, "job", from, to, jobTransitions)
}

func CheckApplication(actor *Actor, from, to models.ApplicationStatus) error {
	return check(actor, "application", from, to, applicationTransitions)
}

func CheckInterview(actor *Actor, from, to models.InterviewStatus) error {
	return check(actor, "interview", from, to, interviewTransitions)
}

func CheckOffer(actor *Actor, from, to models.OfferStatus) error {
	return check(actor, "offer", from, to, offerTransitions)
}

// CanHire reports whether an employee may be created from an offer with the
// given status and whose application has the given status.
func CanHire(actor *Actor, offer models.OfferStatus, app models.ApplicationStatus) error {
	if err := RequireStaff(actor); err != nil {
		return err
	}
	if offer != models.OfferAccepted {
		return fmt.Errorf("%w: offer is %s, must be %s", e.ErrPrecondition, offer, models.OfferAccepted)
	}
	if app != models.ApplicationAccepted {
		return fmt.Errorf("%w: application is %s, must be %s", e.ErrPrecondition, app, models.ApplicationAccepted)
	}
	return nil
}

// CanScheduleInterview enforces that interviews are only created for
// applications that have been reviewed.
func CanScheduleInterview(actor *Actor, app models.ApplicationStatus) error {
	if err := RequireStaff(actor); err != nil {
		return err
	}
	if app != models.ApplicationReviewed {
		return fmt.Errorf("%w: application is %s, must be %s", e.ErrPrecondition, app, models.ApplicationReviewed)
	}
	return nil
}

// CanCreateOffer enforces that offers are only created for applications in
// OFFERED.
func CanCreateOffer(actor *Actor, app models.ApplicationStatus) error {
	if err := RequireStaff(actor); err != nil {
		return err
	}
	if app != models.ApplicationOffered {
		return fmt.Errorf("%w: application is %s, must be %s", e.ErrPrecondition, app, models.ApplicationOffered)
	}
	return nil
}

// CanAssess enforces that assessments are only attached to completed
// interviews.
func CanAssess(actor *Actor, interview models.InterviewStatus) error {
	if err := RequireStaff(actor); err != nil {
		return err
	}
	if interview != models.InterviewCompleted {
		return fmt.Errorf("%w: interview is %s, must be %s", e.ErrPrecondition, interview, models.InterviewCompleted)
	}
	return nil
}

// Next returns the statuses reachable from the given application status by a
// manual transition.
func Next(from models.ApplicationStatus) []models.ApplicationStatus {
	next := applicationTransitions[from]
	out := make([]models.ApplicationStatus, len(next))
	copy(out, next)
	return out
}

func check[S ~string](actor *Actor, entity string, from, to S, table map[S][]S) error {
	if err := RequireStaff(actor); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: %s is already %s", e.ErrInvalidTransition, entity, to)
	}
	for _, allowed := range table[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot move from %s to %s", e.ErrInvalidTransition, entity, from, to)
}
