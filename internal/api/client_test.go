package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1/", opts...)
}

func TestClientSendsBearerAndDecodesEnvelope(t *testing.T) {
	var gotAuth, gotReqID, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(requestIDHeader)
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"job": map[string]any{"_id": "j1", "title": "Paint fence", "status": "Open"}},
		})
	}, WithTokenSource(func(context.Context) (string, error) { return "tok-1", nil }))

	job, err := c.Job(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, models.JobOpen, job.Status)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "/api/v1/jobs/j1", gotPath)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var hadAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	require.NoError(t, c.UpdateFCMToken(context.Background(), "fcm"))
	assert.False(t, hadAuth)
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		kind   apperr.Kind
		code   string
	}{
		{"not found", http.StatusNotFound, map[string]any{"success": false, "message": "Job not found"}, apperr.KindNotFound, apperr.CodeNotFound},
		{"conflict code on 400", http.StatusBadRequest, map[string]any{"success": false, "code": "ALREADY_APPLIED"}, apperr.KindConflict, apperr.CodeAlreadyApplied},
		{"forbidden", http.StatusForbidden, map[string]any{"success": false}, apperr.KindForbidden, apperr.CodeForbidden},
		{"server", http.StatusBadGateway, map[string]any{"success": false}, apperr.KindServer, apperr.CodeServerError},
		{"success false on 200", http.StatusOK, map[string]any{"success": false, "code": "TOKEN_EXPIRED"}, apperr.KindUnauthorized, apperr.CodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.Job(context.Background(), "j1")
			require.Error(t, err)

			var e *apperr.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, "api.Job", e.Op)
		})
	}
}

func TestClientUnauthorizedHook(t *testing.T) {
	var fired atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "code": "INVALID_TOKEN"})
	}, WithUnauthorizedHook(func(context.Context, error) { fired.Add(1) }))

	_, err := c.MyJobs(context.Background(), models.JobQuery{})
	require.Error(t, err)
	assert.True(t, apperr.IsAuth(err))
	assert.Equal(t, int32(1), fired.Load())

	_, err = c.VerifyToken(context.Background(), "id-token", "")
	require.Error(t, err)
	assert.Equal(t, int32(1), fired.Load(), "verify-token rejections must not force a sign-out")

	require.Error(t, c.Logout(context.Background()))
	assert.Equal(t, int32(1), fired.Load())
}

func TestClientTimeoutDiscardsLateReply(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"job": map[string]any{"id": "late"}}})
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	job, err := c.Job(context.Background(), "j1")
	require.Error(t, err)
	assert.Empty(t, job.ID)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
	assert.True(t, apperr.Retryable(err))
}

func TestClientCallerCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Job(ctx, "j1")
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, apperr.KindTimeout, e.Kind)
	assert.Equal(t, apperr.CodeCancelled, e.Code)
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL)
	_, err := c.Job(context.Background(), "j1")
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
}

func TestAvailableJobsQuery(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"jobs": []any{}}})
	})

	_, err := c.AvailableJobs(context.Background(), models.AvailableQuery{
		Near:          &models.GeoPoint{Lat: 12.97, Lng: 77.59},
		MaxDistanceKm: 10,
		Skills:        []string{"painting", "moving"},
		Page:          2,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"latitude":    "12.97",
		"longitude":   "77.59",
		"maxDistance": "10",
		"skills":      "painting,moving",
		"page":        "2",
	}, got)
}

func TestDecodesDecisionResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "accept", body["action"])
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"application": map[string]any{"id": "a1", "jobId": "j1", "applicantId": "u2", "status": "Accepted"},
			"acceptedJob": map[string]any{"id": "aj1", "jobId": "j1", "workerId": "u2", "employerId": "u1", "status": "Active", "chatRoomId": "room-1"},
			"chatRoomId":  "room-1",
		}})
	})

	res, err := c.Decide(context.Background(), "a1", models.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, res.Application.Status)
	require.NotNil(t, res.AcceptedJob)
	assert.Equal(t, models.EngagementActive, res.AcceptedJob.Status)
	assert.Equal(t, "room-1", res.ChatRoomID)
}

func TestClientRateLimitWaitBeyondDeadline(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, WithTimeout(50*time.Millisecond), WithRateLimit(rate.NewLimiter(rate.Every(time.Hour), 1)))

	require.NoError(t, c.UpdateFCMToken(context.Background(), "a"))
	err := c.UpdateFCMToken(context.Background(), "b")
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}
