// Package models defines the domain models of the recruitment pipeline:
// jobs, applications, interviews, assessments, offers, employees and users,
// together with the closed status and role enumerations they use.
package models

import (
	"fmt"
	"strings"
)

// Role is the authorization role of a User.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleHRManager Role = "HR_MANAGER"
	RoleEmployee  Role = "EMPLOYEE"
	RoleCandidate Role = "CANDIDATE"
)

// JobStatus is the publication state of a Job.
type JobStatus string

const (
	JobDraft  JobStatus = "DRAFT"
	JobOpen   JobStatus = "OPEN"
	JobPaused JobStatus = "PAUSED"
	JobClosed JobStatus = "CLOSED"
)

// EmploymentType describes the contract of a Job.
type EmploymentType string

const (
	FullTime   EmploymentType = "FULL_TIME"
	PartTime   EmploymentType = "PART_TIME"
	Contract   EmploymentType = "CONTRACT"
	Internship EmploymentType = "INTERNSHIP"
)

// ApplicationStatus is the position of an Application in the pipeline.
type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "SUBMITTED"
	ApplicationReviewed  ApplicationStatus = "REVIEWED"
	ApplicationInterview ApplicationStatus = "INTERVIEW"
	ApplicationOffered   ApplicationStatus = "OFFERED"
	ApplicationAccepted  ApplicationStatus = "ACCEPTED"
	ApplicationRejected  ApplicationStatus = "REJECTED"
	ApplicationHired     ApplicationStatus = "HIRED"
)

// InterviewStatus is the lifecycle state of an Interview.
type InterviewStatus string

const (
	InterviewScheduled  InterviewStatus = "SCHEDULED"
	InterviewInProgress InterviewStatus = "IN_PROGRESS"
	InterviewCompleted  InterviewStatus = "COMPLETED"
	InterviewCancelled  InterviewStatus = "CANCELLED"
)

// InterviewType is the format of an Interview.
type InterviewType string

const (
	InterviewVideo    InterviewType = "VIDEO"
	InterviewPhone    InterviewType = "PHONE"
	InterviewInPerson InterviewType = "IN_PERSON"
	InterviewPanel    InterviewType = "PANEL"
)

// Recommendation is the hiring verdict recorded in an Assessment.
type Recommendation string

const (
	StrongHire   Recommendation = "STRONG_HIRE"
	Hire         Recommendation = "HIRE"
	NoHire       Recommendation = "NO_HIRE"
	StrongNoHire Recommendation = "STRONG_NO_HIRE"
)

// OfferStatus is the lifecycle state of an Offer.
type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferSent     OfferStatus = "SENT"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
	OfferExpired  OfferStatus = "EXPIRED"
)

// EmployeeStatus is the employment state of an Employee.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "ACTIVE"
	EmployeeInactive EmployeeStatus = "INACTIVE"
)

var (
	roles             = setOf(RoleAdmin, RoleHRManager, RoleEmployee, RoleCandidate)
	jobStatuses       = setOf(JobDraft, JobOpen, JobPaused, JobClosed)
	employmentTypes   = setOf(FullTime, PartTime, Contract, Internship)
	applicationStatus = setOf(ApplicationSubmitted, ApplicationReviewed, ApplicationInterview,
		ApplicationOffered, ApplicationAccepted, ApplicationRejected, ApplicationHired)
	interviewStatuses = setOf(InterviewScheduled, InterviewInProgress, InterviewCompleted, InterviewCancelled)
	interviewTypes    = setOf(InterviewVideo, InterviewPhone, InterviewInPerson, InterviewPanel)
	recommendations   = setOf(StrongHire, Hire, NoHire, StrongNoHire)
	offerStatuses     = setOf(OfferPending, OfferSent, OfferAccepted, OfferRejected, OfferExpired)
)

func setOf[T ~string](values ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// parseEnum normalizes raw and checks it against the allowed set.
func parseEnum[T ~string](kind, raw string, allowed map[T]struct{}) (T, error) {
	v := T(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := allowed[v]; !ok {
		return "", fmt.Errorf("unknown %s %q", kind, raw)
	}
	return v, nil
}

func ParseRole(raw string) (Role, error) { return parseEnum("role", raw, roles) }

func ParseJobStatus(raw string) (JobStatus, error) {
	return parseEnum("job status", raw, jobStatuses)
}

func ParseEmploymentType(raw string) (EmploymentType, error) {
	return parseEnum("employment type", raw, employmentTypes)
}

func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	return parseEnum("application status", raw, applicationStatus)
}

func ParseInterviewStatus(raw string) (InterviewStatus, error) {
	return parseEnum("interview status", raw, interviewStatuses)
}

func ParseInterviewType(raw string) (InterviewType, error) {
	return parseEnum("interview type", raw, interviewTypes)
}

func ParseRecommendation(raw string) (Recommendation, error) {
	return parseEnum("recommendation", raw, recommendations)
}

func ParseOfferStatus(raw string) (OfferStatus, error) {
	return parseEnum("offer status", raw, offerStatuses)
}

// IsStaff reports whether the role may mutate pipeline state.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleHRManager
}
