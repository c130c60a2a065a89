package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

type applicationData struct {
	Application models.JobApplication `json:"application"`
}

type acceptedJobData struct {
	AcceptedJob models.AcceptedJob `json:"acceptedJob"`
}

type acceptedJobsData struct {
	AcceptedJobs []models.AcceptedJob `json:"acceptedJobs"`
}

func (c *Client) Apply(ctx context.Context, jobID, message string) (models.JobApplication, error) {
	body := map[string]string{"jobId": jobID}
	if message != "" {
		body["message"] = message
	}
	d, err := do[applicationData](ctx, c, "api.Apply", request{
		method: http.MethodPost,
		path:   PathApply,
		body:   body,
	})
	return d.Application, err
}

func (c *Client) MyApplications(ctx context.Context, status models.ApplicationStatus, page int) ([]models.JobApplication, error) {
	v := url.Values{}
	if status != "" {
		v.Set("status", string(status))
	}
	d, err := do[applicationsData](ctx, c, "api.MyApplications", request{
		method: http.MethodGet,
		path:   PathMyApplications,
		query:  pageQuery(v, page, 0),
	})
	return d.Applications, err
}

func (c *Client) AcceptedJobs(ctx context.Context, status models.EngagementStatus) ([]models.AcceptedJob, error) {
	v := url.Values{}
	if status != "" {
		v.Set("status", string(status))
	}
	d, err := do[acceptedJobsData](ctx, c, "api.AcceptedJobs", request{
		method: http.MethodGet,
		path:   PathAcceptedJobs,
		query:  v,
	})
	return d.AcceptedJobs, err
}

// IncomingRequests lists Applied applications across all of the caller's jobs.
func (c *Client) IncomingRequests(ctx context.Context) ([]models.JobApplication, error) {
	d, err := do[applicationsData](ctx, c, "api.IncomingRequests", request{
		method: http.MethodGet,
		path:   PathIncomingRequests,
	})
	return d.Applications, err
}

// Decide accepts or rejects one application. The server applies an accept's
// cascade atomically.
func (c *Client) Decide(ctx context.Context, applicationID string, d models.Decision) (models.DecisionResult, error) {
	return do[models.DecisionResult](ctx, c, "api.Decide", request{
		method: http.MethodPut,
		path:   ApplicationPath(applicationID),
		body:   map[string]models.Decision{"action": d},
	})
}

func (c *Client) Withdraw(ctx context.Context, applicationID string) error {
	_, err := do[Empty](ctx, c, "api.Withdraw", request{
		method: http.MethodDelete,
		path:   ApplicationPath(applicationID),
	})
	return err
}

func (c *Client) Complete(ctx context.Context, acceptedJobID string) (models.AcceptedJob, error) {
	d, err := do[acceptedJobData](ctx, c, "api.Complete", request{
		method: http.MethodPut,
		path:   CompletePath(acceptedJobID),
	})
	return d.AcceptedJob, err
}

func (c *Client) Rate(ctx context.Context, acceptedJobID string, score int, review string) error {
	body := map[string]any{"rating": score}
	if review != "" {
		body["review"] = review
	}
	_, err := do[Empty](ctx, c, "api.Rate", request{
		method: http.MethodPost,
		path:   RatePath(acceptedJobID),
		body:   body,
	})
	return err
}
