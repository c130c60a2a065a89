package models

import (
	"time"
)

type ApplicationStatus string

const (
	ApplicationApplied   ApplicationStatus = "Applied"
	ApplicationAccepted  ApplicationStatus = "Accepted"
	ApplicationRejected  ApplicationStatus = "Rejected"
	ApplicationWithdrawn ApplicationStatus = "Withdrawn"
)

// Live reports whether the application still counts toward the one-per-job
// uniqueness rule.
func (s ApplicationStatus) Live() bool {
	return s != "" && s != ApplicationWithdrawn
}

// JobApplication belongs to exactly one job and one applicant.
type JobApplication struct {
	ID        string            `json:"id"`
	Job       Job               `json:"jobId"`
	Applicant UserRef           `json:"applicantId"`
	Status    ApplicationStatus `json:"status"`
	Message   string            `json:"message,omitempty"`
	AppliedAt time.Time         `json:"appliedAt,omitempty"`
}

func (a *JobApplication) UnmarshalJSON(data []byte) error {
	type alias JobApplication
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(a)}
	if err := unmarshalObject(data, &aux); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = aux.MongoID
	}
	return nil
}

// Decision is what the applicant review screen chooses.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

type EngagementStatus string

const (
	EngagementActive    EngagementStatus = "Active"
	EngagementCompleted EngagementStatus = "Completed"
	EngagementCancelled EngagementStatus = "Cancelled"
)

// AcceptedJob is the employer-worker engagement formed by accepting one
// application. At most one is Active per job.
type AcceptedJob struct {
	ID         string           `json:"id"`
	Job        Job              `json:"jobId"`
	Worker     UserRef          `json:"workerId"`
	Employer   UserRef          `json:"employerId"`
	Status     EngagementStatus `json:"status"`
	ChatRoomID string           `json:"chatRoomId"`
	AcceptedAt time.Time        `json:"acceptedAt,omitempty"`
}

func (a *AcceptedJob) UnmarshalJSON(data []byte) error {
	type alias AcceptedJob
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(a)}
	if err := unmarshalObject(data, &aux); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = aux.MongoID
	}
	return nil
}

// DecisionResult is the body of PUT /applications/{id}.
type DecisionResult struct {
	Application JobApplication `json:"application"`
	AcceptedJob *AcceptedJob   `json:"acceptedJob,omitempty"`
	ChatRoomID  string         `json:"chatRoomId,omitempty"`
}
