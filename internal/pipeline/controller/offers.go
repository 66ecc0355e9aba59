package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gartstein/hiring/internal/pipeline/db"
	e "github.com/gartstein/hiring/internal/pipeline/errors"
	"github.com/gartstein/hiring/internal/pipeline/events"
	"github.com/gartstein/hiring/internal/pipeline/models"
	"github.com/gartstein/hiring/internal/pipeline/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultOfferValidity applies when an offer is created without an expiry date.
const defaultOfferValidity = 14 * 24 * time.Hour

type CreateOfferRequest struct {
	ApplicationID uuid.UUID
	Position      string
	Department    string
	Salary        int64
	StartDate     time.Time
	ExpiresAt     time.Time
	Notes         string
}

// offerDecisions maps an offer decision onto the application status it
// implies.
var offerDecisions = map[models.OfferStatus]models.ApplicationStatus{
	models.OfferAccepted: models.ApplicationAccepted,
	models.OfferRejected: models.ApplicationRejected,
}

// CreateOffer creates a PENDING offer for an application in OFFERED.
// Position and department default to the job's.
func (s *PipelineService) CreateOffer(ctx context.Context, actor *tracker.Actor, req CreateOfferRequest) (*models.Offer, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	if req.Salary <= 0 {
		return nil, fmt.Errorf("%w: salary must be positive", e.ErrInvalidInput)
	}
	now := s.now()
	if req.ExpiresAt.IsZero() {
		req.ExpiresAt = now.Add(defaultOfferValidity)
	}
	if !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry date must be in the future", e.ErrInvalidInput)
	}

	app, err := s.loadApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := tracker.CanCreateOffer(actor, app.Status); err != nil {
		return nil, err
	}
	job, err := s.repo.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	offer := &models.Offer{
		ID:             uuid.New(),
		ApplicationID:  app.ID,
		JobID:          app.JobID,
		CandidateName:  app.CandidateName,
		CandidateEmail: app.CandidateEmail,
		Position:       firstNonEmpty(req.Position, job.Title),
		Department:     firstNonEmpty(req.Department, job.Department),
		Salary:         req.Salary,
		StartDate:      req.StartDate.UTC(),
		ExpiresAt:      req.ExpiresAt.UTC(),
		Status:         models.OfferPending,
		Notes:          req.Notes,
	}
	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.logger.Info("offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("application_id", app.ID.String()),
		zap.Int64("salary", offer.Salary),
	)
	s.emit(events.New(events.OfferCreated, events.EntityOffer, offer.ID, app.ID,
		"", string(offer.Status), actor.UserID))
	return offer, nil
}

func (s *PipelineService) GetOffer(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Offer, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	offer, err := s.repo.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// TransitionOffer changes an offer's status. Accepting or rejecting the offer
// moves an OFFERED application along in the same transaction. An offer past
// its expiry date can no longer be accepted.
func (s *PipelineService) TransitionOffer(ctx context.Context, actor *tracker.Actor, id uuid.UUID, to models.OfferStatus) (*models.Offer, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}

	var (
		offer   *models.Offer
		pending []events.Event
	)
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		offer, err = tx.GetOffer(ctx, id)
		if err != nil {
			return err
		}
		if err := tracker.CheckOffer(actor, offer.Status, to); err != nil {
			return err
		}
		if to == models.OfferAccepted && offer.Expired(s.now()) {
			return fmt.Errorf("%w: offer expired on %s", e.ErrPrecondition, offer.ExpiresAt.Format(time.DateOnly))
		}
		if err := tx.UpdateOfferStatus(ctx, id, offer.Status, to); err != nil {
			return err
		}
		pending = append(pending, events.New(events.OfferStatusChanged, events.EntityOffer, id, offer.ApplicationID,
			string(offer.Status), string(to), actor.UserID))
		offer.Status = to

		appStatus, ok := offerDecisions[to]
		if !ok {
			return nil
		}
		app, err := tx.GetApplication(ctx, offer.ApplicationID)
		if err != nil {
			return err
		}
		if app.Status != models.ApplicationOffered {
			return nil
		}
		if err := tx.UpdateApplicationStatus(ctx, app.ID, app.Status, appStatus); err != nil {
			return err
		}
		pending = append(pending, events.New(events.ApplicationStatusChanged, events.EntityApplication, app.ID, app.ID,
			string(app.Status), string(appStatus), actor.UserID))
		return nil
	})
	if err != nil {
		if isServiceError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update offer status: %w", err)
	}

	s.logger.Info("offer status changed",
		zap.String("offer_id", id.String()),
		zap.String("to", string(to)),
	)
	s.emit(pending...)
	return offer, nil
}

// ExpireOverdueOffers moves up to limit PENDING or SENT offers past their
// expiry date to EXPIRED and returns how many were expired. Offers changed
// concurrently are skipped.
func (s *PipelineService) ExpireOverdueOffers(ctx context.Context, limit int) (int, error) {
	actor := tracker.System
	offers, err := s.repo.ListOverdueOffers(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue offers: %w", err)
	}

	expired := 0
	for _, offer := range offers {
		if err := tracker.CheckOffer(&actor, offer.Status, models.OfferExpired); err != nil {
			continue
		}
		if err := s.repo.UpdateOfferStatus(ctx, offer.ID, offer.Status, models.OfferExpired); err != nil {
			if errors.Is(err, e.ErrConflict) || errors.Is(err, e.ErrNotFound) {
				s.logger.Debug("offer changed before expiry", zap.String("offer_id", offer.ID.String()))
				continue
			}
			return expired, fmt.Errorf("failed to expire offer %s: %w", offer.ID, err)
		}
		expired++
		s.emit(events.New(events.OfferStatusChanged, events.EntityOffer, offer.ID, offer.ApplicationID,
			string(offer.Status), string(models.OfferExpired), actor.UserID))
	}
	return expired, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// isServiceError reports whether err already carries one of the pipeline
// sentinels and can be returned as is.
func isServiceError(err error) bool {
	for _, target := range []error{
		e.ErrNotFound, e.ErrConflict, e.ErrInvalidInput, e.ErrInvalidTransition,
		e.ErrPrecondition, e.ErrUnauthenticated, e.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
