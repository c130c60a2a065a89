package jobs

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

const (
	minScore = 1
	maxScore = 5
)

// Apply submits an application. The job is re-read first so that a job that
// is no longer Open, or one this user already applied to, is refused without
// creating anything.
func (c *Coordinator) Apply(ctx context.Context, jobID, message string) (models.JobApplication, error) {
	const op = "jobs.Apply"
	if err := requireID(op, "jobId", jobID); err != nil {
		return models.JobApplication{}, err
	}

	job, err := c.GetJob(ctx, jobID)
	if err != nil {
		return models.JobApplication{}, attribute(op, err)
	}
	if job.Status != models.JobOpen {
		return models.JobApplication{}, apperr.ErrJobNotOpen.At(op)
	}
	c.mu.Lock()
	_, known := c.liveApplicationLocked(jobID)
	c.mu.Unlock()
	if known || (job.HasApplied && job.ApplicationStatus.Live()) {
		return models.JobApplication{}, apperr.ErrAlreadyApplied.At(op)
	}

	app, err := c.api.Apply(ctx, jobID, message)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			c.refetchAvailable(ctx)
		}
		return models.JobApplication{}, attribute(op, err)
	}
	if app.Job.ID == "" {
		app.Job.ID = jobID
	}

	c.mu.Lock()
	c.applications.edit(func(items []models.JobApplication) []models.JobApplication {
		return append([]models.JobApplication{app}, items...)
	})
	c.mu.Unlock()
	c.storeJob(job)

	c.logger.Info("applied", zap.String("job_id", jobID), zap.String("application_id", app.ID))
	return app, nil
}

// Withdraw retracts a pending application, freeing the job for a new one.
func (c *Coordinator) Withdraw(ctx context.Context, applicationID string) error {
	const op = "jobs.Withdraw"
	if err := requireID(op, "applicationId", applicationID); err != nil {
		return err
	}
	if err := c.api.Withdraw(ctx, applicationID); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			if _, ferr := c.MyApplications(ctx, ""); ferr != nil {
				c.logger.Debug("refetch after conflict failed", zap.Error(ferr))
			}
		}
		return attribute(op, err)
	}

	c.mu.Lock()
	var jobID string
	c.applications.edit(func(items []models.JobApplication) []models.JobApplication {
		for i := range items {
			if items[i].ID == applicationID {
				items[i].Status = models.ApplicationWithdrawn
				jobID = items[i].Job.ID
			}
		}
		return items
	})
	if jobID != "" {
		c.available.edit(func(items []models.Job) []models.Job {
			for i := range items {
				if items[i].ID == jobID {
					items[i].HasApplied = false
					items[i].ApplicationStatus = models.ApplicationWithdrawn
				}
			}
			return items
		})
	}
	c.mu.Unlock()
	return nil
}

// MyApplications fetches this user's applications, optionally by status. An
// unfiltered fetch also feeds the already-applied guard.
func (c *Coordinator) MyApplications(ctx context.Context, status models.ApplicationStatus) ([]models.JobApplication, error) {
	const op = "jobs.MyApplications"
	var gen uint64
	if status == "" {
		c.mu.Lock()
		gen = c.applications.begin()
		c.mu.Unlock()
	}

	list, err := c.api.MyApplications(ctx, status, 0)
	if err != nil {
		return nil, attribute(op, err)
	}
	if status == "" {
		c.mu.Lock()
		c.applications.commit(gen, list)
		c.mu.Unlock()
	}
	return list, nil
}

// IncomingRequests lists pending applications across every job this user
// created.
func (c *Coordinator) IncomingRequests(ctx context.Context) ([]models.JobApplication, error) {
	list, err := c.api.IncomingRequests(ctx)
	if err != nil {
		return nil, attribute("jobs.IncomingRequests", err)
	}
	return list, nil
}

// Decided is the outcome of a decision. RefreshErr reports a failed follow-up
// re-fetch; the decision itself stands.
type Decided struct {
	models.DecisionResult
	RefreshErr error
}

// Decide accepts or rejects an application. An accept is all-or-nothing on
// the server: the chosen application is accepted, every sibling rejected, an
// Active engagement with a chat room is created and the job moves to
// InProgress. The applicant, mine and available lists are then re-fetched
// rather than patched.
func (c *Coordinator) Decide(ctx context.Context, applicationID string, d models.Decision) (Decided, error) {
	const op = "jobs.Decide"
	if err := requireID(op, "applicationId", applicationID); err != nil {
		return Decided{}, err
	}
	if !d.Valid() {
		return Decided{}, apperr.Validation(op, "action", "action must be %q or %q", models.DecisionAccept, models.DecisionReject)
	}

	jobID := c.jobOfApplication(applicationID)
	res, err := c.api.Decide(ctx, applicationID, d)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict && jobID != "" {
			c.refreshAfterDecision(ctx, jobID)
		}
		return Decided{}, attribute(op, err)
	}
	if res.Application.Job.ID != "" {
		jobID = res.Application.Job.ID
	}

	out := Decided{DecisionResult: res}
	if d == models.DecisionAccept {
		if res.ChatRoomID == "" && res.AcceptedJob != nil {
			out.ChatRoomID = res.AcceptedJob.ChatRoomID
		}
		out.RefreshErr = c.refreshAfterDecision(ctx, jobID)
		if res.AcceptedJob != nil {
			c.mu.Lock()
			accepted := *res.AcceptedJob
			c.engagements.edit(func(items []models.AcceptedJob) []models.AcceptedJob {
				return append([]models.AcceptedJob{accepted}, items...)
			})
			c.mu.Unlock()
		}
		c.logger.Info("application accepted",
			zap.String("application_id", applicationID),
			zap.String("job_id", jobID),
			zap.String("chat_room_id", out.ChatRoomID))
		return out, nil
	}

	// A reject touches one application only.
	c.mu.Lock()
	if v, ok := c.applicants[jobID]; ok {
		v.edit(func(items []models.JobApplication) []models.JobApplication {
			return replace(items, func(a models.JobApplication) bool { return a.ID == applicationID }, res.Application)
		})
	}
	c.mu.Unlock()
	return out, nil
}

func (c *Coordinator) jobOfApplication(applicationID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for jobID, v := range c.applicants {
		if _, ok := v.find(func(a models.JobApplication) bool { return a.ID == applicationID }); ok {
			return jobID
		}
	}
	return ""
}

// refreshAfterDecision re-fetches every list an accept can change.
func (c *Coordinator) refreshAfterDecision(ctx context.Context, jobID string) error {
	var errs []error
	if jobID != "" {
		if _, err := c.ListApplicants(ctx, jobID); err != nil {
			errs = append(errs, err)
		}
		if _, err := c.GetJob(ctx, jobID); err != nil {
			errs = append(errs, err)
		}
	}
	c.mu.Lock()
	mineLoaded, availLoaded := c.mine.loaded, c.available.loaded
	mineQuery := c.mineQuery
	c.mu.Unlock()
	if mineLoaded {
		if _, err := c.MyJobs(ctx, mineQuery); err != nil {
			errs = append(errs, err)
		}
	}
	if availLoaded {
		c.refetchAvailable(ctx)
	}
	return errors.Join(errs...)
}

// refetchAvailable repeats the last available-jobs query.
func (c *Coordinator) refetchAvailable(ctx context.Context) {
	c.mu.Lock()
	q := c.availableQuery
	c.mu.Unlock()
	if _, err := c.AvailableJobs(ctx, q); err != nil {
		c.logger.Debug("available jobs refetch failed", zap.Error(err))
	}
}

// AcceptedJobs fetches engagements where this user is worker or employer.
func (c *Coordinator) AcceptedJobs(ctx context.Context, status models.EngagementStatus) ([]models.AcceptedJob, error) {
	const op = "jobs.AcceptedJobs"
	var gen uint64
	if status == "" {
		c.mu.Lock()
		gen = c.engagements.begin()
		c.mu.Unlock()
	}
	list, err := c.api.AcceptedJobs(ctx, status)
	if err != nil {
		return nil, attribute(op, err)
	}
	if status == "" {
		c.mu.Lock()
		c.engagements.commit(gen, list)
		c.mu.Unlock()
	}
	return list, nil
}

// CompleteEngagement finishes an Active engagement. Completion is one-way.
func (c *Coordinator) CompleteEngagement(ctx context.Context, acceptedJobID string) (models.AcceptedJob, error) {
	const op = "jobs.CompleteEngagement"
	if _, err := c.activeEngagement(ctx, op, acceptedJobID); err != nil {
		return models.AcceptedJob{}, err
	}
	done, err := c.api.Complete(ctx, acceptedJobID)
	if err != nil {
		c.refetchEngagementsOnConflict(ctx, err)
		return models.AcceptedJob{}, attribute(op, err)
	}
	if done.ID == "" {
		done.ID = acceptedJobID
	}
	c.mu.Lock()
	c.engagements.edit(func(items []models.AcceptedJob) []models.AcceptedJob {
		return replace(items, func(e models.AcceptedJob) bool { return e.ID == acceptedJobID }, done)
	})
	c.mu.Unlock()
	return done, nil
}

// Rate scores the other party of an Active engagement from 1 to 5.
func (c *Coordinator) Rate(ctx context.Context, acceptedJobID string, score int, review string) error {
	const op = "jobs.Rate"
	if score < minScore || score > maxScore {
		return apperr.Validation(op, "rating", "rating must be between %d and %d", minScore, maxScore)
	}
	if _, err := c.activeEngagement(ctx, op, acceptedJobID); err != nil {
		return err
	}
	if err := c.api.Rate(ctx, acceptedJobID, score, review); err != nil {
		c.refetchEngagementsOnConflict(ctx, err)
		return attribute(op, err)
	}
	return nil
}

// activeEngagement finds the engagement among fresh accepted jobs and
// requires it to be Active.
func (c *Coordinator) activeEngagement(ctx context.Context, op, id string) (models.AcceptedJob, error) {
	if err := requireID(op, "acceptedJobId", id); err != nil {
		return models.AcceptedJob{}, err
	}
	list, err := c.AcceptedJobs(ctx, "")
	if err != nil {
		return models.AcceptedJob{}, attribute(op, err)
	}
	for _, e := range list {
		if e.ID != id {
			continue
		}
		if e.Status != models.EngagementActive {
			return e, apperr.ErrEngagementNotActive.At(op)
		}
		return e, nil
	}
	return models.AcceptedJob{}, &apperr.Error{Kind: apperr.KindNotFound, Code: apperr.CodeNotFound,
		Op: op, Message: "accepted job not found"}
}

func (c *Coordinator) refetchEngagementsOnConflict(ctx context.Context, err error) {
	if apperr.KindOf(err) != apperr.KindConflict {
		return
	}
	if _, ferr := c.AcceptedJobs(ctx, ""); ferr != nil {
		c.logger.Debug("refetch after conflict failed", zap.Error(ferr))
	}
}
