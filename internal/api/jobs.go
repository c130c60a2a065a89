package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

type jobData struct {
	Job models.Job `json:"job"`
}

type jobsData struct {
	Jobs []models.Job `json:"jobs"`
}

type applicationsData struct {
	Applications []models.JobApplication `json:"applications"`
}

func (c *Client) CreateJob(ctx context.Context, f models.JobFields) (models.Job, error) {
	d, err := do[jobData](ctx, c, "api.CreateJob", request{method: http.MethodPost, path: PathJobs, body: f})
	return d.Job, err
}

func (c *Client) MyJobs(ctx context.Context, q models.JobQuery) (models.JobPage, error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	return do[models.JobPage](ctx, c, "api.MyJobs", request{
		method: http.MethodGet,
		path:   PathMyJobs,
		query:  pageQuery(v, q.Page, q.Limit),
	})
}

func (c *Client) AvailableJobs(ctx context.Context, q models.AvailableQuery) ([]models.Job, error) {
	v := url.Values{}
	if q.Near != nil {
		v.Set("latitude", strconv.FormatFloat(q.Near.Lat, 'f', -1, 64))
		v.Set("longitude", strconv.FormatFloat(q.Near.Lng, 'f', -1, 64))
		if q.MaxDistanceKm > 0 {
			v.Set("maxDistance", strconv.FormatFloat(q.MaxDistanceKm, 'f', -1, 64))
		}
	}
	if len(q.Skills) > 0 {
		v.Set("skills", strings.Join(q.Skills, ","))
	}
	d, err := do[jobsData](ctx, c, "api.AvailableJobs", request{
		method: http.MethodGet,
		path:   PathAvailableJobs,
		query:  pageQuery(v, q.Page, q.Limit),
	})
	return d.Jobs, err
}

func (c *Client) Job(ctx context.Context, id string) (models.Job, error) {
	d, err := do[jobData](ctx, c, "api.Job", request{method: http.MethodGet, path: JobPath(id)})
	return d.Job, err
}

func (c *Client) UpdateJob(ctx context.Context, id string, f models.JobFields) (models.Job, error) {
	d, err := do[jobData](ctx, c, "api.UpdateJob", request{method: http.MethodPut, path: JobPath(id), body: f})
	return d.Job, err
}

func (c *Client) CancelJob(ctx context.Context, id string) (models.Job, error) {
	d, err := do[jobData](ctx, c, "api.CancelJob", request{method: http.MethodPut, path: CancelJobPath(id)})
	return d.Job, err
}

func (c *Client) CloseJob(ctx context.Context, id string) (models.Job, error) {
	d, err := do[jobData](ctx, c, "api.CloseJob", request{method: http.MethodPut, path: CloseJobPath(id)})
	return d.Job, err
}

// Applicants is creator-only; anyone else gets Forbidden from the server.
func (c *Client) Applicants(ctx context.Context, jobID string) ([]models.JobApplication, error) {
	d, err := do[applicationsData](ctx, c, "api.Applicants", request{
		method: http.MethodGet,
		path:   ApplicantsPath(jobID),
	})
	return d.Applications, err
}
