package fakeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/api"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/fakeapi"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

type harness struct {
	fake *fakeapi.Server
	srv  *httptest.Server
}

func newHarness(t *testing.T, opts ...fakeapi.Option) *harness {
	t.Helper()
	fake := fakeapi.New(opts...)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return &harness{fake: fake, srv: srv}
}

func (h *harness) client(token string) *api.Client {
	return api.New(h.srv.URL+fakeapi.Prefix, api.WithTokenSource(func(context.Context) (string, error) {
		return token, nil
	}))
}

var openJob = models.JobFields{
	Title:        "Move boxes",
	Description:  "Two rooms of boxes",
	Payment:      "800",
	LocationText: "Koramangala",
}

func TestAcceptCascade(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	empTok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeEmployer)
	emp := h.client(empTok)

	job, err := emp.CreateJob(ctx, openJob)
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, job.Status)

	var appIDs []string
	for i, ph := range []string{"+912222222222", "+913333333333", "+914444444444"} {
		tok, _ := h.fake.SeedUser(ph, "Worker", models.ModeWorker, "lifting")
		app, err := h.client(tok).Apply(ctx, job.ID, "")
		require.NoError(t, err, "applicant %d", i)
		appIDs = append(appIDs, app.ID)
	}

	res, err := emp.Decide(ctx, appIDs[1], models.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, res.Application.Status)
	require.NotNil(t, res.AcceptedJob)
	assert.Equal(t, models.EngagementActive, res.AcceptedJob.Status)
	assert.NotEmpty(t, res.ChatRoomID)

	statuses := h.fake.ApplicationStatuses(job.ID)
	assert.Equal(t, models.ApplicationRejected, statuses[appIDs[0]])
	assert.Equal(t, models.ApplicationAccepted, statuses[appIDs[1]])
	assert.Equal(t, models.ApplicationRejected, statuses[appIDs[2]])

	st, _ := h.fake.JobStatus(job.ID)
	assert.Equal(t, models.JobInProgress, st)
	assert.Len(t, h.fake.Engagements(job.ID), 1)

	_, err = emp.Decide(ctx, appIDs[0], models.DecisionAccept)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestApplyGuards(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	empTok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeEmployer)
	emp := h.client(empTok)
	wTok, _ := h.fake.SeedUser("+912222222222", "Ravi", models.ModeWorker)
	worker := h.client(wTok)

	job, err := emp.CreateJob(ctx, openJob)
	require.NoError(t, err)

	_, err = emp.Apply(ctx, job.ID, "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	app, err := worker.Apply(ctx, job.ID, "hi")
	require.NoError(t, err)
	_, err = worker.Apply(ctx, job.ID, "again")
	assert.ErrorIs(t, err, apperr.ErrAlreadyApplied)

	require.NoError(t, worker.Withdraw(ctx, app.ID))
	_, err = worker.Apply(ctx, job.ID, "back")
	require.NoError(t, err, "a withdrawn application frees the slot")

	_, err = emp.CloseJob(ctx, job.ID)
	require.NoError(t, err)
	_, err = worker.Apply(ctx, job.ID, "")
	assert.ErrorIs(t, err, apperr.ErrJobNotOpen)

	_, err = emp.CancelJob(ctx, job.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "closed is terminal")
}

func TestAvailableJobsFilters(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	empTok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeEmployer)
	emp := h.client(empTok)

	near := openJob
	near.RequiredSkills = []string{"Plumbing"}
	near.LocationGeo = &models.GeoPoint{Lat: 12.93, Lng: 77.62}
	far := openJob
	far.Title = "Far away"
	far.LocationGeo = &models.GeoPoint{Lat: 28.61, Lng: 77.20}
	_, err := emp.CreateJob(ctx, near)
	require.NoError(t, err)
	_, err = emp.CreateJob(ctx, far)
	require.NoError(t, err)

	wTok, _ := h.fake.SeedUser("+912222222222", "Ravi", models.ModeWorker)
	jobs, err := h.client(wTok).AvailableJobs(ctx, models.AvailableQuery{
		Near:          &models.GeoPoint{Lat: 12.97, Lng: 77.59},
		MaxDistanceKm: 25,
		Skills:        []string{"plumbing"},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Move boxes", jobs[0].Title)

	mine, err := emp.AvailableJobs(ctx, models.AvailableQuery{})
	require.NoError(t, err)
	assert.Empty(t, mine, "creators never see their own jobs as available")
}

func TestRateRequiresActiveEngagement(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	empTok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeEmployer)
	emp := h.client(empTok)
	wTok, worker := h.fake.SeedUser("+912222222222", "Ravi", models.ModeWorker)

	job, err := emp.CreateJob(ctx, openJob)
	require.NoError(t, err)
	app, err := h.client(wTok).Apply(ctx, job.ID, "")
	require.NoError(t, err)
	res, err := emp.Decide(ctx, app.ID, models.DecisionAccept)
	require.NoError(t, err)

	require.NoError(t, emp.Rate(ctx, res.AcceptedJob.ID, 4, "good"))
	u, _ := h.fake.User(worker.ID)
	require.NotNil(t, u.Rating)
	assert.Equal(t, 1, u.Rating.Count)
	assert.InDelta(t, 4.0, u.Rating.Average, 0.001)

	done, err := emp.Complete(ctx, res.AcceptedJob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EngagementCompleted, done.Status)
	st, _ := h.fake.JobStatus(job.ID)
	assert.Equal(t, models.JobCompleted, st)

	err = h.client(wTok).Rate(ctx, res.AcceptedJob.ID, 5, "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAuthFailures(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.client("").Profile(ctx)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	tok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeWorker)
	_, err = h.client(tok).Profile(ctx)
	require.NoError(t, err)
	h.fake.Revoke(tok)
	_, err = h.client(tok).Profile(ctx)
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindUnauthorized, Code: apperr.CodeInvalidToken})
}

func TestFailNextAndCalls(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	tok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeWorker)
	c := h.client(tok)

	h.fake.FailNext(http.MethodPost, "/auth/logout", http.StatusInternalServerError, "")
	err := c.Logout(ctx)
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, 2, h.fake.Calls(http.MethodPost, "/auth/logout"))
}

func TestRateLimit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fakeapi.WithRateLimit(0.001, 2))
	tok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeWorker)
	c := h.client(tok)

	for i := 0; i < 2; i++ {
		_, err := c.Profile(ctx)
		require.NoError(t, err)
	}
	_, err := c.Profile(ctx)
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
}

func TestChatSocketBroadcast(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	empTok, _ := h.fake.SeedUser("+911111111111", "Asha", models.ModeEmployer)
	emp := h.client(empTok)
	wTok, _ := h.fake.SeedUser("+912222222222", "Ravi", models.ModeWorker)

	job, err := emp.CreateJob(ctx, openJob)
	require.NoError(t, err)
	app, err := h.client(wTok).Apply(ctx, job.ID, "")
	require.NoError(t, err)
	res, err := emp.Decide(ctx, app.ID, models.DecisionAccept)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws/chat?room_id=" + res.ChatRoomID
	hdr := http.Header{"Authorization": {"Bearer " + wTok}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.fake.Subscribers(res.ChatRoomID) == 1 }, time.Second, 10*time.Millisecond)

	sent, err := emp.SendChatMessage(ctx, res.ChatRoomID, "  see you at 9  ")
	require.NoError(t, err)
	assert.Equal(t, "see you at 9", sent.Text)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt models.ChatEvent
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, models.ChatEventMessage, evt.Type)
	require.NotNil(t, evt.Message)
	assert.Equal(t, sent.ID, evt.Message.ID)

	page, err := emp.ChatMessages(ctx, res.ChatRoomID, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "system", page.Messages[0].Type)
	assert.False(t, page.HasMore)

	_, _, err = websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err, "sockets need a token")
}
