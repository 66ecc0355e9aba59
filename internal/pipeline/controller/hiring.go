package controller

import (
	"context"
	"crypto/rand"
	"encoding/hex"
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
	"golang.org/x/crypto/bcrypt"
)

// HireCandidate turns an ACCEPTED offer into an Employee. In one transaction
// it finds or creates the candidate's user account, creates the employee and
// moves the application from ACCEPTED to HIRED.
//
// Hiring is idempotent per offer: when an employee already exists for the
// offer it is returned with created set to false.
func (s *PipelineService) HireCandidate(ctx context.Context, actor *tracker.Actor, offerID uuid.UUID) (*models.Employee, bool, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.GetEmployeeByOffer(ctx, offerID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up employee: %w", err)
	}

	var (
		employee *models.Employee
		pending  []events.Event
	)
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		offer, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		app, err := tx.GetApplication(ctx, offer.ApplicationID)
		if err != nil {
			return err
		}
		if err := tracker.CanHire(actor, offer.Status, app.Status); err != nil {
			return err
		}

		user, err := s.employeeAccount(ctx, tx, offer)
		if err != nil {
			return err
		}

		number, err := employeeNumber()
		if err != nil {
			return err
		}
		employee = &models.Employee{
			ID:             uuid.New(),
			EmployeeNumber: number,
			OfferID:        offer.ID,
			UserID:         user.ID,
			Name:           offer.CandidateName,
			Email:          offer.CandidateEmail,
			Department:     offer.Department,
			Position:       offer.Position,
			Salary:         offer.Salary,
			HireDate:       hireDate(offer, s.now()),
			Status:         models.EmployeeActive,
		}
		if err := tx.CreateEmployee(ctx, employee); err != nil {
			return err
		}
		if err := tx.UpdateApplicationStatus(ctx, app.ID, app.Status, models.ApplicationHired); err != nil {
			return err
		}

		pending = append(pending,
			events.New(events.CandidateHired, events.EntityEmployee, employee.ID, app.ID,
				"", string(employee.Status), actor.UserID),
			events.New(events.ApplicationStatusChanged, events.EntityApplication, app.ID, app.ID,
				string(app.Status), string(models.ApplicationHired), actor.UserID),
		)
		return nil
	})
	if err != nil {
		// A concurrent hire of the same offer won the unique index.
		if errors.Is(err, e.ErrConflict) {
			if winner, lookupErr := s.repo.GetEmployeeByOffer(ctx, offerID); lookupErr == nil {
				return winner, false, nil
			}
		}
		if isServiceError(err) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to hire candidate: %w", err)
	}

	s.logger.Info("candidate hired",
		zap.String("employee_id", employee.ID.String()),
		zap.String("employee_number", employee.EmployeeNumber),
		zap.String("offer_id", offerID.String()),
	)
	s.emit(pending...)
	return employee, true, nil
}

func (s *PipelineService) GetEmployee(ctx context.Context, actor *tracker.Actor, id uuid.UUID) (*models.Employee, error) {
	if err := tracker.RequireStaff(actor); err != nil {
		return nil, err
	}
	employee, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

// employeeAccount returns the user the new employee logs in with. An
// existing CANDIDATE account is promoted; staff accounts keep their role.
func (s *PipelineService) employeeAccount(ctx context.Context, tx *db.Repository, offer *models.Offer) (*models.User, error) {
	user, err := tx.GetUserByEmail(ctx, offer.CandidateEmail)
	switch {
	case err == nil:
		if user.Role == models.RoleCandidate {
			if err := tx.UpdateUserRole(ctx, user.ID, models.RoleEmployee); err != nil {
				return nil, err
			}
			user.Role = models.RoleEmployee
		}
		return user, nil
	case !errors.Is(err, e.ErrNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.opts.DefaultEmployeePassword), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user = &models.User{
		ID:           uuid.New(),
		Email:        offer.CandidateEmail,
		Name:         offer.CandidateName,
		PasswordHash: string(hash),
		Role:         models.RoleEmployee,
	}
	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func employeeNumber() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate employee number: %w", err)
	}
	return "EMP-" + strings.ToUpper(hex.EncodeToString(b)), nil
}

// hireDate is the offer's start date, or today when none was set.
func hireDate(offer *models.Offer, now time.Time) time.Time {
	if offer.StartDate.IsZero() {
		return now
	}
	return offer.StartDate
}
