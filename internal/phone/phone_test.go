package phone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		message string
		status  int
		kind    apperr.Kind
		class   apperr.Kind
	}{
		{"INVALID_PHONE_NUMBER : Invalid format.", 400, apperr.KindInvalidPhoneNumber, apperr.KindValidation},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", 400, apperr.KindRateLimited, apperr.KindForbidden},
		{"QUOTA_EXCEEDED", 400, apperr.KindRateLimited, apperr.KindForbidden},
		{"INVALID_CODE", 400, apperr.KindInvalidCode, apperr.KindValidation},
		{"SESSION_EXPIRED", 400, apperr.KindCodeExpired, apperr.KindValidation},
		{"", 429, apperr.KindRateLimited, apperr.KindForbidden},
		{"", 503, apperr.KindProviderUnavailable, apperr.KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			e := MapError("op", tt.status, tt.message)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.class, e.Kind.Class())
		})
	}
}

func firebaseStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts:sendVerificationCode", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["phoneNumber"] != "+919876543210" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_PHONE_NUMBER : bad"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"sessionInfo":"abc123"}`))
	})
	mux.HandleFunc("/v1/accounts:signInWithPhoneNumber", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["code"] != "123456" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_CODE"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"idToken":"id-1","refreshToken":"rt-1","expiresIn":"3600","phoneNumber":"+919876543210"}`))
	})
	mux.HandleFunc("/v1/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"id_token":"id-2","refresh_token":"rt-2","expires_in":"3600"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFirebaseFlow(t *testing.T) {
	srv := firebaseStub(t)
	fb := NewFirebase(FirebaseConfig{
		APIKey:             "k",
		IdentityBaseURL:    srv.URL + "/v1",
		SecureTokenBaseURL: srv.URL + "/v1",
	})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fb.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := fb.RequestCode(ctx, "+15550000000")
	assert.Equal(t, apperr.KindInvalidPhoneNumber, apperr.KindOf(err))

	id, err := fb.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = fb.Confirm(ctx, id, "000000")
	assert.Equal(t, apperr.KindInvalidCode, apperr.KindOf(err))

	cred, err := fb.Confirm(ctx, id, "123456")
	require.NoError(t, err)
	assert.Equal(t, "id-1", cred.IDToken)
	assert.Equal(t, now.Add(time.Hour), cred.ExpiresAt)
	assert.False(t, cred.Expired(now))

	cred, err = fb.Refresh(ctx, cred.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "id-2", cred.IDToken)
	assert.Equal(t, "rt-2", cred.RefreshToken)
}

func TestFirebaseUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	fb := NewFirebase(FirebaseConfig{APIKey: "k", IdentityBaseURL: srv.URL})
	_, err := fb.RequestCode(context.Background(), "+919876543210")
	assert.Equal(t, apperr.KindProviderUnavailable, apperr.KindOf(err))
	assert.True(t, apperr.Retryable(err))
}

func TestFake(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &Fake{
		TTL:    time.Minute,
		NextID: func() string { return "abc123" },
		Now:    func() time.Time { return now },
	}
	ctx := context.Background()

	id, err := f.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, 1, f.Sent())

	_, err = f.Confirm(ctx, id, "654321")
	assert.Equal(t, apperr.KindInvalidCode, apperr.KindOf(err))

	cred, err := f.Confirm(ctx, id, FakeCode)
	require.NoError(t, err)
	phone, ok := PhoneFromFakeToken(cred.IDToken)
	require.True(t, ok)
	assert.Equal(t, "+919876543210", phone)

	_, err = f.Confirm(ctx, id, FakeCode)
	assert.Error(t, err, "a verification is single use")

	refreshed, err := f.Refresh(ctx, cred.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, cred.IDToken, refreshed.IDToken)
}

func TestFakeExpiryAndInjectedFailure(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &Fake{TTL: time.Minute, Now: func() time.Time { return now }}
	ctx := context.Background()

	id, err := f.RequestCode(ctx, "+919876543210")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = f.Confirm(ctx, id, FakeCode)
	assert.Equal(t, apperr.KindCodeExpired, apperr.KindOf(err))

	f.FailNext("RequestCode", MapError("phone.RequestCode", 400, "TOO_MANY_ATTEMPTS_TRY_LATER"))
	_, err = f.RequestCode(ctx, "+919876543210")
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	_, err = f.RequestCode(ctx, "+919876543210")
	assert.NoError(t, err)
}
