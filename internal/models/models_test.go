package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobApplicationDecodesPopulatedAndBareRefs(t *testing.T) {
	raw := `[
		{"_id":"a1","jobId":{"_id":"j1","title":"Paint fence","status":"Open"},
		 "applicantId":{"id":"u1","name":"Ravi","skills":["painting"]},"status":"Applied"},
		{"id":"a2","jobId":"j2","applicantId":"u2","status":"Withdrawn"}
	]`

	var apps []JobApplication
	require.NoError(t, json.Unmarshal([]byte(raw), &apps))
	require.Len(t, apps, 2)

	assert.Equal(t, "a1", apps[0].ID)
	assert.Equal(t, "j1", apps[0].Job.ID)
	assert.Equal(t, JobOpen, apps[0].Job.Status)
	assert.Equal(t, "Ravi", apps[0].Applicant.Name)
	assert.True(t, apps[0].Status.Live())

	assert.Equal(t, "j2", apps[1].Job.ID)
	assert.Equal(t, "u2", apps[1].Applicant.ID)
	assert.False(t, apps[1].Status.Live())
}

func TestUserDecodesMongoID(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"u9","phone":"+919876543210","isProfileComplete":false,"currentMode":"worker"}`), &u))
	assert.Equal(t, "u9", u.ID)
	assert.Equal(t, ModeWorker, u.CurrentMode)
	assert.False(t, u.IsProfileComplete)
}

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		ok       bool
	}{
		{JobOpen, JobInProgress, true},
		{JobOpen, JobCancelled, true},
		{JobInProgress, JobOpen, false},
		{JobInProgress, JobCompleted, true},
		{JobClosed, JobOpen, false},
		{JobCancelled, JobInProgress, false},
		{JobCompleted, JobClosed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.True(t, JobClosed.Terminal())
	assert.False(t, JobInProgress.Terminal())
}

func TestNormalizeSkills(t *testing.T) {
	got := NormalizeSkills([]string{" Plumbing", "plumbing", "", "Carpentry ", "  "})
	assert.Equal(t, []string{"Plumbing", "Carpentry"}, got)

	u := User{Skills: got}
	assert.True(t, u.HasSkill("CARPENTRY"))
	assert.False(t, u.HasSkill("welding"))
}

func TestJobFieldsTrimmed(t *testing.T) {
	f := JobFields{Title: "  Move boxes ", Payment: " 500 ", RequiredSkills: []string{"lifting", "Lifting"}}.Trimmed()
	assert.Equal(t, "Move boxes", f.Title)
	assert.Equal(t, "500", f.Payment)
	assert.Equal(t, []string{"lifting"}, f.RequiredSkills)
}
