// Package jobs drives job and application lifecycle operations for one client
// and keeps its local lists consistent with the server.
//
// Lists are never patched after an accept or a Conflict: the affected lists
// are re-fetched, so a client can never show two accepted applicants for one
// job.
package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/api"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

type Coordinator struct {
	api    *api.Client
	logger *zap.Logger

	mu           sync.Mutex
	available    view[models.Job]
	mine         view[models.Job]
	applicants   map[string]*view[models.JobApplication] // by job id
	applications view[models.JobApplication]
	engagements  view[models.AcceptedJob]

	// Last queries, reused when a list is re-fetched after a decision.
	mineQuery      models.JobQuery
	availableQuery models.AvailableQuery
}

func New(client *api.Client, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		api:        client,
		logger:     logging.OrNop(logger),
		applicants: map[string]*view[models.JobApplication]{},
	}
}

// Available returns the last fetched list of jobs open to this user.
func (c *Coordinator) Available() []models.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available.snapshot()
}

// Mine returns the last fetched list of jobs this user created.
func (c *Coordinator) Mine() []models.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mine.snapshot()
}

// ApplicantsOf returns the last fetched applicant list of a job.
func (c *Coordinator) ApplicantsOf(jobID string) []models.JobApplication {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.applicants[jobID]; ok {
		return v.snapshot()
	}
	return nil
}

// Applications returns the last fetched list of this user's applications.
func (c *Coordinator) Applications() []models.JobApplication {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applications.snapshot()
}

// Engagements returns the last fetched accepted jobs.
func (c *Coordinator) Engagements() []models.AcceptedJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engagements.snapshot()
}

func (c *Coordinator) applicantView(jobID string) *view[models.JobApplication] {
	v, ok := c.applicants[jobID]
	if !ok {
		v = &view[models.JobApplication]{}
		c.applicants[jobID] = v
	}
	return v
}

// validateFields trims f and rejects it before any network call when a
// required field is blank.
func validateFields(op string, f models.JobFields) (models.JobFields, error) {
	f = f.Trimmed()
	for _, field := range []struct{ name, label, value string }{
		{"title", "Job title", f.Title},
		{"description", "Description", f.Description},
		{"payment", "Payment", f.Payment},
		{"locationText", "Location", f.LocationText},
	} {
		if field.value == "" {
			return f, apperr.Validation(op, field.name, "%s is required", field.label)
		}
	}
	if g := f.LocationGeo; g != nil && (g.Lat < -90 || g.Lat > 90 || g.Lng < -180 || g.Lng > 180) {
		return f, apperr.Validation(op, "locationGeo", "coordinates are out of range")
	}
	return f, nil
}

func (c *Coordinator) CreateJob(ctx context.Context, f models.JobFields) (models.Job, error) {
	const op = "jobs.CreateJob"
	f, err := validateFields(op, f)
	if err != nil {
		return models.Job{}, err
	}
	job, err := c.api.CreateJob(ctx, f)
	if err != nil {
		return models.Job{}, attribute(op, err)
	}

	c.mu.Lock()
	c.mine.edit(func(items []models.Job) []models.Job {
		return append([]models.Job{job}, items...)
	})
	c.mu.Unlock()

	c.logger.Info("job created", zap.String("job_id", job.ID))
	return job, nil
}

func (c *Coordinator) UpdateJob(ctx context.Context, id string, f models.JobFields) (models.Job, error) {
	const op = "jobs.UpdateJob"
	if err := requireID(op, "jobId", id); err != nil {
		return models.Job{}, err
	}
	f, err := validateFields(op, f)
	if err != nil {
		return models.Job{}, err
	}
	job, err := c.api.UpdateJob(ctx, id, f)
	if err != nil {
		c.refetchOnConflict(ctx, err, id)
		return models.Job{}, attribute(op, err)
	}
	c.storeJob(job)
	return job, nil
}

// GetJob fetches one job and refreshes it in any list that shows it.
func (c *Coordinator) GetJob(ctx context.Context, id string) (models.Job, error) {
	const op = "jobs.GetJob"
	if err := requireID(op, "jobId", id); err != nil {
		return models.Job{}, err
	}
	job, err := c.api.Job(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			c.dropJob(id)
		}
		return models.Job{}, attribute(op, err)
	}
	c.storeJob(job)
	return job, nil
}

// MyJobs fetches the jobs this user created.
func (c *Coordinator) MyJobs(ctx context.Context, q models.JobQuery) (models.JobPage, error) {
	const op = "jobs.MyJobs"
	c.mu.Lock()
	gen := c.mine.begin()
	c.mineQuery = q
	c.mu.Unlock()

	page, err := c.api.MyJobs(ctx, q)
	if err != nil {
		return models.JobPage{}, attribute(op, err)
	}
	c.mu.Lock()
	if !c.mine.commit(gen, page.Jobs) {
		c.logger.Debug("discarding superseded reply", zap.String("op", op))
	}
	c.mu.Unlock()
	return page, nil
}

// AvailableJobs fetches open jobs for this user and marks the ones already
// applied to. The user's applications are fetched first when none have been
// loaded yet.
func (c *Coordinator) AvailableJobs(ctx context.Context, q models.AvailableQuery) ([]models.Job, error) {
	const op = "jobs.AvailableJobs"
	if q.MaxDistanceKm < 0 {
		return nil, apperr.Validation(op, "maxDistance", "distance must not be negative")
	}
	c.mu.Lock()
	known := c.applications.loaded
	c.mu.Unlock()
	if !known {
		if _, err := c.MyApplications(ctx, ""); err != nil {
			return nil, attribute(op, err)
		}
	}

	q.Skills = append([]string(nil), q.Skills...)
	c.mu.Lock()
	gen := c.available.begin()
	c.availableQuery = q
	c.mu.Unlock()

	list, err := c.api.AvailableJobs(ctx, q)
	if err != nil {
		return nil, attribute(op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range list {
		c.markAppliedLocked(&list[i])
	}
	if !c.available.commit(gen, list) {
		c.logger.Debug("discarding superseded reply", zap.String("op", op))
	}
	return list, nil
}

func (c *Coordinator) markAppliedLocked(j *models.Job) {
	if a, ok := c.liveApplicationLocked(j.ID); ok {
		j.HasApplied = true
		j.ApplicationStatus = a.Status
	}
}

func (c *Coordinator) liveApplicationLocked(jobID string) (models.JobApplication, bool) {
	return c.applications.find(func(a models.JobApplication) bool {
		return a.Job.ID == jobID && a.Status.Live()
	})
}

// ListApplicants fetches a job's applicants. Only the creator may call it;
// anyone else gets Forbidden from the server.
func (c *Coordinator) ListApplicants(ctx context.Context, jobID string) ([]models.JobApplication, error) {
	const op = "jobs.ListApplicants"
	if err := requireID(op, "jobId", jobID); err != nil {
		return nil, err
	}
	c.mu.Lock()
	gen := c.applicantView(jobID).begin()
	c.mu.Unlock()

	list, err := c.api.Applicants(ctx, jobID)
	if err != nil {
		return nil, attribute(op, err)
	}
	c.mu.Lock()
	c.applicantView(jobID).commit(gen, list)
	c.mu.Unlock()
	return list, nil
}

func (c *Coordinator) CancelJob(ctx context.Context, id string) (models.Job, error) {
	return c.endJob(ctx, "jobs.CancelJob", id, c.api.CancelJob)
}

func (c *Coordinator) CloseJob(ctx context.Context, id string) (models.Job, error) {
	return c.endJob(ctx, "jobs.CloseJob", id, c.api.CloseJob)
}

// endJob re-reads the job so a terminal status is refused locally; no
// operation may reopen a cancelled or closed job.
func (c *Coordinator) endJob(ctx context.Context, op, id string, call func(context.Context, string) (models.Job, error)) (models.Job, error) {
	if err := requireID(op, "jobId", id); err != nil {
		return models.Job{}, err
	}
	cur, err := c.GetJob(ctx, id)
	if err != nil {
		return models.Job{}, attribute(op, err)
	}
	if cur.Status.Terminal() {
		return cur, apperr.ErrJobTerminal.At(op)
	}

	job, err := call(ctx, id)
	if err != nil {
		c.refetchOnConflict(ctx, err, id)
		return models.Job{}, attribute(op, err)
	}
	c.storeJob(job)
	c.mu.Lock()
	if v, ok := c.applicants[id]; ok {
		// Pending applicants were rejected server-side.
		v.edit(func(items []models.JobApplication) []models.JobApplication {
			for i := range items {
				if items[i].Status == models.ApplicationApplied {
					items[i].Status = models.ApplicationRejected
				}
			}
			return items
		})
	}
	c.mu.Unlock()
	return job, nil
}

// storeJob replaces the job wherever it is listed.
func (c *Coordinator) storeJob(job models.Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	match := func(j models.Job) bool { return j.ID == job.ID }
	if _, ok := c.mine.find(match); ok {
		c.mine.edit(func(items []models.Job) []models.Job { return replace(items, match, job) })
	}
	if _, ok := c.available.find(match); ok {
		c.markAppliedLocked(&job)
		if job.Status != models.JobOpen {
			c.available.edit(func(items []models.Job) []models.Job { return without(items, match) })
		} else {
			c.available.edit(func(items []models.Job) []models.Job { return replace(items, match, job) })
		}
	}
}

func (c *Coordinator) dropJob(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	match := func(j models.Job) bool { return j.ID == id }
	c.mine.edit(func(items []models.Job) []models.Job { return without(items, match) })
	c.available.edit(func(items []models.Job) []models.Job { return without(items, match) })
	delete(c.applicants, id)
}

// refetchOnConflict re-reads a job after the server refused a mutation on
// state grounds. The refetch is best effort; the original error is returned
// by the caller either way.
func (c *Coordinator) refetchOnConflict(ctx context.Context, err error, jobID string) {
	if apperr.KindOf(err) != apperr.KindConflict || jobID == "" {
		return
	}
	if _, ferr := c.GetJob(ctx, jobID); ferr != nil {
		c.logger.Debug("refetch after conflict failed", zap.String("job_id", jobID), zap.Error(ferr))
	}
}

func without[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out
}

func requireID(op, field, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validation(op, field, "%s is required", field)
	}
	return nil
}

func attribute(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		if e.Op == op {
			return e
		}
		return e.At(op)
	}
	return apperr.Wrap(apperr.KindUnknown, op, err)
}
