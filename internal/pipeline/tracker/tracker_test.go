package tracker

import (
	"testing"

	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	hr        = &Actor{UserID: uuid.New(), Role: models.RoleHRManager}
	admin     = &Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	candidate = &Actor{UserID: uuid.New(), Role: models.RoleCandidate}
	employee  = &Actor{UserID: uuid.New(), Role: models.RoleEmployee}
)

func TestRequireStaff(t *testing.T) {
	assert.NoError(t, RequireStaff(hr))
	assert.NoError(t, RequireStaff(admin))
	assert.ErrorIs(t, RequireStaff(nil), e.ErrUnauthenticated)
	assert.ErrorIs(t, RequireStaff(candidate), e.ErrForbidden)
	assert.ErrorIs(t, RequireStaff(employee), e.ErrForbidden)
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(hr), e.ErrForbidden)
	assert.ErrorIs(t, RequireAdmin(nil), e.ErrUnauthenticated)
}

func TestCheckApplication(t *testing.T) {
	tests := []struct {
		name    string
		actor   *Actor
		from    models.ApplicationStatus
		to      models.ApplicationStatus
		wantErr error
	}{
		{"review submitted", hr, models.ApplicationSubmitted, models.ApplicationReviewed, nil},
		{"reject submitted", admin, models.ApplicationSubmitted, models.ApplicationRejected, nil},
		{"reviewed to interview", hr, models.ApplicationReviewed, models.ApplicationInterview, nil},
		{"reviewed to offered", hr, models.ApplicationReviewed, models.ApplicationOffered, nil},
		{"interview to offered", hr, models.ApplicationInterview, models.ApplicationOffered, nil},
		{"offered to accepted", hr, models.ApplicationOffered, models.ApplicationAccepted, nil},
		{"skip review", hr, models.ApplicationSubmitted, models.ApplicationOffered, e.ErrInvalidTransition},
		{"manual hire", hr, models.ApplicationAccepted, models.ApplicationHired, e.ErrInvalidTransition},
		{"leave rejected", hr, models.ApplicationRejected, models.ApplicationReviewed, e.ErrInvalidTransition},
		{"leave hired", admin, models.ApplicationHired, models.ApplicationRejected, e.ErrInvalidTransition},
		{"same status", hr, models.ApplicationReviewed, models.ApplicationReviewed, e.ErrInvalidTransition},
		{"candidate", candidate, models.ApplicationSubmitted, models.ApplicationReviewed, e.ErrForbidden},
		{"anonymous", nil, models.ApplicationSubmitted, models.ApplicationReviewed, e.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckApplication(tt.actor, tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckInterview(t *testing.T) {
	assert.NoError(t, CheckInterview(hr, models.InterviewScheduled, models.InterviewInProgress))
	assert.NoError(t, CheckInterview(hr, models.InterviewScheduled, models.InterviewCompleted))
	assert.NoError(t, CheckInterview(hr, models.InterviewScheduled, models.InterviewCancelled))
	assert.NoError(t, CheckInterview(hr, models.InterviewInProgress, models.InterviewCompleted))
	assert.ErrorIs(t, CheckInterview(hr, models.InterviewCompleted, models.InterviewInProgress), e.ErrInvalidTransition)
	assert.ErrorIs(t, CheckInterview(hr, models.InterviewCancelled, models.InterviewScheduled), e.ErrInvalidTransition)
	assert.ErrorIs(t, CheckInterview(employee, models.InterviewScheduled, models.InterviewCompleted), e.ErrForbidden)
}

func TestCheckOffer(t *testing.T) {
	assert.NoError(t, CheckOffer(hr, models.OfferPending, models.OfferSent))
	assert.NoError(t, CheckOffer(hr, models.OfferSent, models.OfferAccepted))
	assert.NoError(t, CheckOffer(hr, models.OfferSent, models.OfferRejected))
	assert.NoError(t, CheckOffer(&System, models.OfferPending, models.OfferExpired))
	assert.ErrorIs(t, CheckOffer(hr, models.OfferPending, models.OfferAccepted), e.ErrInvalidTransition)
	assert.ErrorIs(t, CheckOffer(hr, models.OfferAccepted, models.OfferExpired), e.ErrInvalidTransition)
	assert.ErrorIs(t, CheckOffer(hr, models.OfferExpired, models.OfferSent), e.ErrInvalidTransition)
}

func TestCheckJob(t *testing.T) {
	assert.NoError(t, CheckJob(hr, models.JobDraft, models.JobOpen))
	assert.NoError(t, CheckJob(hr, models.JobPaused, models.JobOpen))
	assert.ErrorIs(t, CheckJob(hr, models.JobClosed, models.JobOpen), e.ErrInvalidTransition)
	assert.ErrorIs(t, CheckJob(hr, models.JobDraft, models.JobPaused), e.ErrInvalidTransition)
}

func TestPreconditions(t *testing.T) {
	assert.NoError(t, CanScheduleInterview(hr, models.ApplicationReviewed))
	assert.ErrorIs(t, CanScheduleInterview(hr, models.ApplicationSubmitted), e.ErrPrecondition)
	assert.ErrorIs(t, CanScheduleInterview(candidate, models.ApplicationReviewed), e.ErrForbidden)

	assert.NoError(t, CanCreateOffer(hr, models.ApplicationOffered))
	assert.ErrorIs(t, CanCreateOffer(hr, models.ApplicationInterview), e.ErrPrecondition)

	assert.NoError(t, CanAssess(hr, models.InterviewCompleted))
	assert.ErrorIs(t, CanAssess(hr, models.InterviewScheduled), e.ErrPrecondition)

	assert.NoError(t, CanHire(hr, models.OfferAccepted, models.ApplicationAccepted))
	assert.ErrorIs(t, CanHire(hr, models.OfferSent, models.ApplicationOffered), e.ErrPrecondition)
	assert.ErrorIs(t, CanHire(hr, models.OfferAccepted, models.ApplicationRejected), e.ErrPrecondition)
}

func TestNextReturnsCopy(t *testing.T) {
	next := Next(models.ApplicationSubmitted)
	assert.Equal(t, []models.ApplicationStatus{models.ApplicationReviewed, models.ApplicationRejected}, next)

	next[0] = models.ApplicationHired
	assert.Equal(t, models.ApplicationReviewed, Next(models.ApplicationSubmitted)[0])
	assert.Empty(t, Next(models.ApplicationHired))
}
