package jobs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/api"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/fakeapi"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

type market struct {
	fake    *fakeapi.Server
	baseURL string
	n       int
}

func newMarket(t *testing.T) *market {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return &market{fake: fake, baseURL: srv.URL + fakeapi.Prefix}
}

// user seeds a complete user and returns a coordinator acting as them.
func (m *market) user(name string, mode models.Mode) (*Coordinator, models.User) {
	m.n++
	tok, u := m.fake.SeedUser(fmt.Sprintf("+9190000000%02d", m.n), name, mode, "lifting")
	client := api.New(m.baseURL, api.WithTokenSource(func(context.Context) (string, error) {
		return tok, nil
	}))
	return New(client, nil), u
}

var fields = models.JobFields{
	Title:          "Move boxes",
	Description:    "Two rooms of boxes to the van",
	StartTime:      "Saturday 9am",
	Payment:        "800",
	LocationText:   "Koramangala, Bengaluru",
	LocationGeo:    &models.GeoPoint{Lat: 12.93, Lng: 77.62},
	TotalTime:      "3 hours",
	RequiredSkills: []string{"lifting"},
}

func TestCreateJobValidation(t *testing.T) {
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)

	tests := []struct {
		name  string
		edit  func(*models.JobFields)
		field string
	}{
		{"blank title", func(f *models.JobFields) { f.Title = "   " }, "title"},
		{"blank description", func(f *models.JobFields) { f.Description = "" }, "description"},
		{"blank payment", func(f *models.JobFields) { f.Payment = "\t" }, "payment"},
		{"blank location", func(f *models.JobFields) { f.LocationText = "" }, "locationText"},
		{"bad coordinates", func(f *models.JobFields) { f.LocationGeo = &models.GeoPoint{Lat: 100} }, "locationGeo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fields
			tt.edit(&f)
			_, err := emp.CreateJob(context.Background(), f)
			var e *apperr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tt.field, e.Field)
		})
	}
	assert.Zero(t, mk.fake.Calls(http.MethodPost, "/jobs"), "validation failures never reach the server")
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, me := mk.user("Asha", models.ModeEmployer)

	created, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	got, err := emp.GetJob(ctx, created.ID)
	require.NoError(t, err)

	visible := func(j models.Job) models.JobFields {
		return models.JobFields{
			Title:          j.Title,
			Description:    j.Description,
			StartTime:      j.StartTime,
			Payment:        j.Payment,
			LocationText:   j.LocationText,
			LocationGeo:    j.LocationGeo,
			TotalTime:      j.TotalTime,
			RequiredSkills: j.RequiredSkills,
		}
	}
	if diff := cmp.Diff(fields, visible(got)); diff != "" {
		t.Errorf("round trip changed visible fields (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.JobOpen, got.Status)
	assert.Equal(t, me.ID, got.CreatedBy.ID)

	require.Len(t, emp.Mine(), 1)
	assert.Equal(t, created.ID, emp.Mine()[0].ID)
}

func TestApplyGuards(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, _ := mk.user("Ravi", models.ModeWorker)

	job, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)

	_, err = worker.Apply(ctx, job.ID, "I can help")
	require.NoError(t, err)

	_, err = worker.Apply(ctx, job.ID, "again")
	assert.ErrorIs(t, err, apperr.ErrAlreadyApplied)
	assert.Equal(t, 1, mk.fake.Calls(http.MethodPost, "/applications/apply"), "the local guard refuses before the server")

	// A fresh client without local knowledge gets the server's answer.
	fresh := New(worker.api, nil)
	_, err = fresh.Apply(ctx, job.ID, "from another device")
	assert.ErrorIs(t, err, apperr.ErrAlreadyApplied)
	assert.Len(t, mk.fake.ApplicationStatuses(job.ID), 1)
}

func TestApplyToClosedJobCreatesNothing(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, _ := mk.user("Ravi", models.ModeWorker)

	for _, end := range []string{"close", "cancel"} {
		t.Run(end, func(t *testing.T) {
			job, err := emp.CreateJob(ctx, fields)
			require.NoError(t, err)
			if end == "close" {
				_, err = emp.CloseJob(ctx, job.ID)
			} else {
				_, err = emp.CancelJob(ctx, job.ID)
			}
			require.NoError(t, err)

			_, err = worker.Apply(ctx, job.ID, "")
			assert.ErrorIs(t, err, apperr.ErrJobNotOpen)
			assert.True(t, apperr.IsKind(err, apperr.KindConflict))
			assert.Empty(t, mk.fake.ApplicationStatuses(job.ID))
		})
	}
}

func TestAcceptCascade(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d applicants", n), func(t *testing.T) {
			ctx := context.Background()
			mk := newMarket(t)
			emp, _ := mk.user("Asha", models.ModeEmployer)

			job, err := emp.CreateJob(ctx, fields)
			require.NoError(t, err)
			var appIDs []string
			for i := 0; i < n; i++ {
				w, _ := mk.user(fmt.Sprintf("Worker %d", i), models.ModeWorker)
				app, err := w.Apply(ctx, job.ID, "")
				require.NoError(t, err)
				appIDs = append(appIDs, app.ID)
			}

			applicants, err := emp.ListApplicants(ctx, job.ID)
			require.NoError(t, err)
			require.Len(t, applicants, n)

			chosen := appIDs[n/2]
			res, err := emp.Decide(ctx, chosen, models.DecisionAccept)
			require.NoError(t, err)
			require.NoError(t, res.RefreshErr)
			assert.Equal(t, models.ApplicationAccepted, res.Application.Status)
			require.NotNil(t, res.AcceptedJob)
			assert.Equal(t, models.EngagementActive, res.AcceptedJob.Status)
			assert.NotEmpty(t, res.ChatRoomID)

			// The local applicant list was re-fetched, not patched.
			accepted := 0
			for _, a := range emp.ApplicantsOf(job.ID) {
				switch a.ID {
				case chosen:
					assert.Equal(t, models.ApplicationAccepted, a.Status)
					accepted++
				default:
					assert.Equal(t, models.ApplicationRejected, a.Status, a.ID)
				}
			}
			assert.Equal(t, 1, accepted)

			st, _ := mk.fake.JobStatus(job.ID)
			assert.Equal(t, models.JobInProgress, st)
			assert.Len(t, mk.fake.Engagements(job.ID), 1)
			assert.Equal(t, models.JobInProgress, emp.Mine()[0].Status)
		})
	}
}

func TestDecideConflictRefetches(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	a, _ := mk.user("Ravi", models.ModeWorker)
	b, _ := mk.user("Meena", models.ModeWorker)

	job, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	appA, err := a.Apply(ctx, job.ID, "")
	require.NoError(t, err)
	appB, err := b.Apply(ctx, job.ID, "")
	require.NoError(t, err)
	_, err = emp.ListApplicants(ctx, job.ID)
	require.NoError(t, err)

	// Another device of the same employer accepts A first.
	other := New(emp.api, nil)
	_, err = other.Decide(ctx, appA.ID, models.DecisionAccept)
	require.NoError(t, err)

	before := mk.fake.Calls(http.MethodGet, "/jobs/"+job.ID+"/applicants")
	_, err = emp.Decide(ctx, appB.ID, models.DecisionAccept)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, before+1, mk.fake.Calls(http.MethodGet, "/jobs/"+job.ID+"/applicants"))

	statuses := map[string]models.ApplicationStatus{}
	for _, app := range emp.ApplicantsOf(job.ID) {
		statuses[app.ID] = app.Status
	}
	assert.Equal(t, map[string]models.ApplicationStatus{
		appA.ID: models.ApplicationAccepted,
		appB.ID: models.ApplicationRejected,
	}, statuses)
}

func TestRejectHasNoCascade(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	a, _ := mk.user("Ravi", models.ModeWorker)
	b, _ := mk.user("Meena", models.ModeWorker)

	job, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	appA, err := a.Apply(ctx, job.ID, "")
	require.NoError(t, err)
	appB, err := b.Apply(ctx, job.ID, "")
	require.NoError(t, err)

	res, err := emp.Decide(ctx, appA.ID, models.DecisionReject)
	require.NoError(t, err)
	assert.Nil(t, res.AcceptedJob)
	assert.Empty(t, res.ChatRoomID)

	statuses := mk.fake.ApplicationStatuses(job.ID)
	assert.Equal(t, models.ApplicationRejected, statuses[appA.ID])
	assert.Equal(t, models.ApplicationApplied, statuses[appB.ID])
	st, _ := mk.fake.JobStatus(job.ID)
	assert.Equal(t, models.JobOpen, st)

	_, err = emp.Decide(ctx, appB.ID, "maybe")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestTerminalJobsStayTerminal(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)

	job, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	cancelled, err := emp.CancelJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, cancelled.Status)

	_, err = emp.CloseJob(ctx, job.ID)
	assert.ErrorIs(t, err, apperr.ErrJobTerminal)
	_, err = emp.CancelJob(ctx, job.ID)
	assert.ErrorIs(t, err, apperr.ErrJobTerminal)
	assert.Equal(t, 1, mk.fake.Calls(http.MethodPut, "/jobs/"+job.ID+"/cancel"))
	assert.Zero(t, mk.fake.Calls(http.MethodPut, "/jobs/"+job.ID+"/close"))

	_, err = emp.UpdateJob(ctx, job.ID, fields)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCompleteAndRate(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, wu := mk.user("Ravi", models.ModeWorker)

	job, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	app, err := worker.Apply(ctx, job.ID, "")
	require.NoError(t, err)
	res, err := emp.Decide(ctx, app.ID, models.DecisionAccept)
	require.NoError(t, err)
	id := res.AcceptedJob.ID

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(emp.Rate(ctx, id, 0, "")))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(emp.Rate(ctx, id, 6, "")))
	require.NoError(t, emp.Rate(ctx, id, 5, "quick and careful"))
	u, _ := mk.fake.User(wu.ID)
	assert.Equal(t, 1, u.Rating.Count)

	done, err := worker.CompleteEngagement(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.EngagementCompleted, done.Status)

	_, err = emp.CompleteEngagement(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrEngagementNotActive)
	assert.ErrorIs(t, worker.Rate(ctx, id, 4, ""), apperr.ErrEngagementNotActive)
	assert.Equal(t, 1, mk.fake.Calls(http.MethodPut, "/applications/accepted/"+id+"/complete"))

	_, err = emp.CompleteEngagement(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	st, _ := mk.fake.JobStatus(job.ID)
	assert.Equal(t, models.JobCompleted, st)
}

func TestWithdrawFreesTheSlot(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, _ := mk.user("Ravi", models.ModeWorker)

	job, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	app, err := worker.Apply(ctx, job.ID, "")
	require.NoError(t, err)

	require.NoError(t, worker.Withdraw(ctx, app.ID))
	apps := worker.Applications()
	require.Len(t, apps, 1)
	assert.Equal(t, models.ApplicationWithdrawn, apps[0].Status)

	_, err = worker.Apply(ctx, job.ID, "changed my mind")
	require.NoError(t, err)

	err = worker.Withdraw(ctx, app.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAvailableMarksApplied(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, _ := mk.user("Ravi", models.ModeWorker)

	j1, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	_, err = emp.CreateJob(ctx, fields)
	require.NoError(t, err)

	_, err = worker.Apply(ctx, j1.ID, "")
	require.NoError(t, err)
	list, err := worker.AvailableJobs(ctx, models.AvailableQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	applied := map[string]bool{}
	for _, j := range list {
		applied[j.ID] = j.HasApplied
	}
	assert.Len(t, applied, 2)
	assert.True(t, applied[j1.ID])
	assert.Len(t, worker.Available(), 2)
}

func TestAvailableLoadsApplicationsOnFreshCoordinator(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, _ := mk.user("Ravi", models.ModeWorker)

	job, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	_, err = worker.Apply(ctx, job.ID, "")
	require.NoError(t, err)

	fresh := New(worker.api, nil)
	list, err := fresh.AvailableJobs(ctx, models.AvailableQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].HasApplied)
	assert.Equal(t, models.ApplicationApplied, list[0].ApplicationStatus)
}

func TestReturnedListsAreNeverRewritten(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, _ := mk.user("Ravi", models.ModeWorker)

	for i := 0; i < 3; i++ {
		_, err := emp.CreateJob(ctx, fields)
		require.NoError(t, err)
	}
	held, err := worker.AvailableJobs(ctx, models.AvailableQuery{})
	require.NoError(t, err)
	require.Len(t, held, 3)
	ids := func(jobs []models.Job) []string {
		out := make([]string, len(jobs))
		for i, j := range jobs {
			out[i] = j.ID
		}
		return out
	}
	before := ids(held)

	cancelled := held[len(held)-1].ID
	_, err = emp.CancelJob(ctx, cancelled)
	require.NoError(t, err)
	_, err = worker.GetJob(ctx, cancelled)
	require.NoError(t, err)

	assert.Equal(t, before, ids(held))
	assert.NotContains(t, ids(worker.Available()), cancelled)
	assert.Len(t, worker.Available(), 2)
}

func TestAcceptRefetchKeepsLastQuery(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	emp, _ := mk.user("Asha", models.ModeEmployer)
	worker, _ := mk.user("Ravi", models.ModeWorker)

	taken, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	open, err := emp.CreateJob(ctx, fields)
	require.NoError(t, err)
	app, err := worker.Apply(ctx, taken.ID, "")
	require.NoError(t, err)

	page, err := emp.MyJobs(ctx, models.JobQuery{Status: models.JobOpen})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 2)

	res, err := emp.Decide(ctx, app.ID, models.DecisionAccept)
	require.NoError(t, err)
	require.NoError(t, res.RefreshErr)

	mine := emp.Mine()
	require.Len(t, mine, 1, "the Open filter survives the refresh")
	assert.Equal(t, open.ID, mine[0].ID)
}

func TestStaleReplyIsDiscarded(t *testing.T) {
	var v view[int]
	older := v.begin()
	newer := v.begin()
	assert.True(t, v.commit(newer, []int{2}))
	assert.False(t, v.commit(older, []int{1}))
	assert.Equal(t, []int{2}, v.snapshot())

	inflight := v.begin()
	v.edit(func(items []int) []int { return append(items, 3) })
	assert.False(t, v.commit(inflight, []int{9}), "a local edit supersedes an in-flight fetch")
	assert.Equal(t, []int{2, 3}, v.snapshot())
}

func TestSkillPosts(t *testing.T) {
	ctx := context.Background()
	mk := newMarket(t)
	worker, _ := mk.user("Ravi", models.ModeWorker)
	emp, _ := mk.user("Asha", models.ModeEmployer)

	_, err := worker.CreateSkillPost(ctx, models.SkillPostFields{Skill: " ", Description: "x"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	post, err := worker.CreateSkillPost(ctx, models.SkillPostFields{Skill: "Tiling", Description: "Bathrooms and kitchens"})
	require.NoError(t, err)
	assert.True(t, post.IsActive)

	page, err := emp.SkillPosts(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.SkillPosts, 1)
	require.NotNil(t, page.Pagination)
	assert.Equal(t, 1, page.Pagination.Total)

	require.NoError(t, emp.RequestSkill(ctx, post.ID, "Need a bathroom redone"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(worker.RequestSkill(ctx, post.ID, "")))

	toggled, err := worker.ToggleSkillPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	assert.Equal(t, 1, toggled.Stats.Requests)

	page, err = emp.SkillPosts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.SkillPosts)

	_, err = emp.UpdateSkillPost(ctx, post.ID, models.SkillPostFields{Description: "mine now"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, worker.DeleteSkillPost(ctx, post.ID))
	mine, err := worker.MySkillPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
