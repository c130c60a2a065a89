package models

import (
	"strings"
	"time"
)

type JobStatus string

const (
	JobOpen       JobStatus = "Open"
	JobClosed     JobStatus = "Closed"
	JobCancelled  JobStatus = "Cancelled"
	JobInProgress JobStatus = "InProgress"
	JobCompleted  JobStatus = "Completed"
)

// Terminal statuses admit no further transition.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobClosed, JobCancelled, JobCompleted:
		return true
	}
	return false
}

// CanTransitionTo encodes the one-directional job lifecycle:
// Open -> InProgress -> Completed, and Open|InProgress -> Closed|Cancelled.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobOpen:
		return next == JobInProgress || next == JobClosed || next == JobCancelled
	case JobInProgress:
		return next == JobCompleted || next == JobClosed || next == JobCancelled
	}
	return false
}

// Job is owned by its creator.
type Job struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	StartTime         string            `json:"startTime,omitempty"`
	Payment           string            `json:"payment"`
	LocationText      string            `json:"locationText"`
	LocationGeo       *GeoPoint         `json:"locationGeo,omitempty"`
	TotalTime         string            `json:"totalTime,omitempty"`
	RequiredSkills    []string          `json:"requiredSkills,omitempty"`
	Status            JobStatus         `json:"status"`
	CreatedBy         UserRef           `json:"createdBy"`
	ApplicantCount    int               `json:"applicantCount,omitempty"`
	HasApplied        bool              `json:"hasApplied,omitempty"`
	ApplicationStatus ApplicationStatus `json:"applicationStatus,omitempty"`
	CreatedAt         time.Time         `json:"createdAt,omitempty"`
}

func (j *Job) UnmarshalJSON(data []byte) error {
	if id, ok := bareID(data); ok {
		*j = Job{ID: id}
		return nil
	}
	type alias Job
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(j)}
	if err := unmarshalObject(data, &aux); err != nil {
		return err
	}
	if j.ID == "" {
		j.ID = aux.MongoID
	}
	return nil
}

// JobFields is the create/update payload. Start and total time are free text.
type JobFields struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartTime      string    `json:"startTime,omitempty"`
	Payment        string    `json:"payment"`
	LocationText   string    `json:"locationText"`
	LocationGeo    *GeoPoint `json:"locationGeo,omitempty"`
	TotalTime      string    `json:"totalTime,omitempty"`
	RequiredSkills []string  `json:"requiredSkills,omitempty"`
}

// Trimmed returns a copy with surrounding whitespace removed from text fields
// and skills normalized.
func (f JobFields) Trimmed() JobFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.StartTime = strings.TrimSpace(f.StartTime)
	f.Payment = strings.TrimSpace(f.Payment)
	f.LocationText = strings.TrimSpace(f.LocationText)
	f.TotalTime = strings.TrimSpace(f.TotalTime)
	f.RequiredSkills = NormalizeSkills(f.RequiredSkills)
	return f
}

// JobQuery filters /jobs/my-jobs.
type JobQuery struct {
	Status JobStatus
	Page   int
	Limit  int
}

// AvailableQuery filters /jobs/available. Near is applied with MaxDistanceKm.
type AvailableQuery struct {
	Near          *GeoPoint
	MaxDistanceKm float64
	Skills        []string
	Page          int
	Limit         int
}

// JobPage is the list envelope of /jobs/my-jobs.
type JobPage struct {
	Jobs  []Job `json:"jobs"`
	Total int   `json:"total,omitempty"`
	Pages int   `json:"pages,omitempty"`
}
