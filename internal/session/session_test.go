package session

import (
	"context"
	"errors"
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
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/phone"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/store"
)

type fixture struct {
	fake     *fakeapi.Server
	provider *phone.Fake
	kv       *store.Memory
	baseURL  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	provider := phone.NewFake()
	provider.NextID = func() string { return "abc123" }
	return &fixture{
		fake:     fake,
		provider: provider,
		kv:       store.NewMemory(),
		baseURL:  srv.URL + fakeapi.Prefix,
	}
}

func (f *fixture) manager(opts ...Option) *Manager {
	return New(api.New(f.baseURL), f.provider, f.kv, opts...)
}

func (f *fixture) signIn(t *testing.T, m *Manager) models.User {
	t.Helper()
	ctx := context.Background()
	v, err := m.RequestCode(ctx, "9876543210")
	require.NoError(t, err)
	u, err := m.ConfirmCode(ctx, v.ID, phone.FakeCode)
	require.NoError(t, err)
	return u
}

func (f *fixture) storedToken(t *testing.T) (string, bool) {
	t.Helper()
	tok, ok, err := f.kv.Get(context.Background(), store.KeyAuthToken)
	require.NoError(t, err)
	return tok, ok
}

func TestSignInRoutesNewUserToProfileCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager()
	assert.Equal(t, StateUnknown, m.State())

	v, err := m.RequestCode(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "abc123", v.ID)
	assert.Equal(t, "+919876543210", v.Phone)
	pending, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, v, pending)

	u, err := m.ConfirmCode(ctx, "abc123", "123456")
	require.NoError(t, err)
	assert.False(t, u.IsProfileComplete)
	assert.Equal(t, "+919876543210", u.Phone)

	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, StateIncomplete, m.State())
	assert.Equal(t, DestProfileCompletion, m.Route(DestHome))

	tok, ok := f.storedToken(t)
	require.True(t, ok)
	assert.Equal(t, m.Token(), tok)
	cur, ok := m.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, u.ID, cur.ID)
	_, ok = m.Pending()
	assert.False(t, ok, "a confirmed verification is consumed")
}

func TestRequestCodeRejectsBadPhoneBeforeProvider(t *testing.T) {
	f := newFixture(t)
	m := f.manager()

	for _, raw := range []string{"", "12345", "98765432101", "phone", "+12"} {
		t.Run(raw, func(t *testing.T) {
			_, err := m.RequestCode(context.Background(), raw)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidPhoneNumber, apperr.KindOf(err))
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
	assert.Zero(t, f.provider.Sent())
	assert.Equal(t, DestSignIn, m.Route(DestHome))
}

func TestRequestCodeSurfacesProviderFailure(t *testing.T) {
	f := newFixture(t)
	m := f.manager()
	f.provider.FailNext("RequestCode", &apperr.Error{Kind: apperr.KindRateLimited, Code: apperr.CodeRateLimited})

	_, err := m.RequestCode(context.Background(), "9876543210")
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	_, ok := m.Pending()
	assert.False(t, ok)
}

func TestWrongCodeNeverMutatesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager()
	v, err := m.RequestCode(ctx, "9876543210")
	require.NoError(t, err)

	tests := []struct {
		name string
		code string
		kind apperr.Kind
	}{
		{"wrong code", "000000", apperr.KindInvalidCode},
		{"too short", "12345", apperr.KindValidation},
		{"letters", "12a456", apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ConfirmCode(ctx, v.ID, tt.code)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.False(t, m.IsAuthenticated())
			_, ok := f.storedToken(t)
			assert.False(t, ok)
		})
	}
	assert.Equal(t, StateUnknown, m.State())

	_, err = m.ConfirmCode(ctx, v.ID, phone.FakeCode)
	require.NoError(t, err, "the verification survives wrong attempts")
}

func TestConfirmCodeBackendRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager()
	v, err := m.RequestCode(ctx, "9876543210")
	require.NoError(t, err)

	f.fake.FailNext(http.MethodPost, "/auth/verify-token", http.StatusUnauthorized, apperr.CodeInvalidToken)
	_, err = m.ConfirmCode(ctx, v.ID, phone.FakeCode)
	assert.Equal(t, apperr.KindBackendRejected, apperr.KindOf(err))
	assert.False(t, m.IsAuthenticated())
	_, ok := f.storedToken(t)
	assert.False(t, ok)
}

func TestCompleteProfileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager()
	f.signIn(t, m)

	p := Profile{Name: " Ravi ", Skills: []string{"Plumbing", "plumbing", "Carpentry"}, Age: 31}
	first, err := m.CompleteProfile(ctx, p)
	require.NoError(t, err)
	assert.True(t, first.IsProfileComplete)
	assert.Equal(t, "Ravi", first.Name)
	assert.Equal(t, []string{"Plumbing", "Carpentry"}, first.Skills)
	assert.Equal(t, StateComplete, m.State())
	assert.Equal(t, DestHome, m.Route(DestHome))

	second, err := m.CompleteProfile(ctx, p)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second completion changed the user (-first +second):\n%s", diff)
	}
}

func TestCompleteProfileValidation(t *testing.T) {
	f := newFixture(t)
	m := f.manager()

	_, err := m.CompleteProfile(context.Background(), Profile{Name: "Ravi", Skills: []string{"x"}})
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	f.signIn(t, m)
	tests := []struct {
		name  string
		p     Profile
		field string
	}{
		{"blank name", Profile{Name: "  ", Skills: []string{"Plumbing"}}, "name"},
		{"no skills", Profile{Name: "Ravi", Skills: []string{" ", ""}}, "skills"},
		{"bad age", Profile{Name: "Ravi", Skills: []string{"Plumbing"}, Age: 200}, "age"},
		{"local image without uploader", Profile{Name: "Ravi", Skills: []string{"Plumbing"}, IDImage: "/tmp/id.jpg"}, "idImage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CompleteProfile(context.Background(), tt.p)
			var e *apperr.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tt.field, e.Field)
		})
	}
	assert.Equal(t, StateIncomplete, m.State())
	assert.Equal(t, 0, f.fake.Calls(http.MethodPost, "/users/complete-profile"))
}

type stubUploader struct {
	paths []string
}

func (s *stubUploader) Upload(_ context.Context, path, folder string) (string, error) {
	s.paths = append(s.paths, path)
	return "https://cdn.example.com/" + folder + "/id.jpg", nil
}

func TestCompleteProfileUploadsLocalImages(t *testing.T) {
	f := newFixture(t)
	up := &stubUploader{}
	m := f.manager(WithUploader(up, "ids"))
	f.signIn(t, m)

	_, err := m.CompleteProfile(context.Background(), Profile{
		Name:         "Ravi",
		Skills:       []string{"Plumbing"},
		IDImage:      "/home/ravi/aadhaar.jpg",
		ProfileImage: "https://cdn.example.com/me.png",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/ravi/aadhaar.jpg"}, up.paths)
}

func TestSignOutClearsStateEvenWhenBackendFails(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"backend ok", 0},
		{"backend error", http.StatusInternalServerError},
		{"backend rejects token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			m := f.manager()
			f.signIn(t, m)
			if tt.status != 0 {
				f.fake.FailNext(http.MethodPost, "/auth/logout", tt.status, "")
			}

			require.NoError(t, m.SignOut(context.Background()))
			_, ok := m.CurrentUser()
			assert.False(t, ok)
			assert.False(t, m.IsAuthenticated())
			assert.Equal(t, StateAnonymous, m.State())
			_, ok = f.storedToken(t)
			assert.False(t, ok)
			assert.Equal(t, 1, f.fake.Calls(http.MethodPost, "/auth/logout"))
		})
	}
}

func TestSignOutWithUnreachableBackend(t *testing.T) {
	f := newFixture(t)
	m := f.manager()
	f.signIn(t, m)

	dead := New(api.New("http://127.0.0.1:1"+fakeapi.Prefix), f.provider, f.kv)
	_, err := dead.Restore(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Retryable(err))
	assert.Equal(t, StateUnknown, dead.State(), "a transient failure does not decide the session")

	require.NoError(t, dead.SignOut(context.Background()))
	_, ok := f.storedToken(t)
	assert.False(t, ok)
}

func TestUnauthorizedReplyForcesSignOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager()
	f.signIn(t, m)

	f.fake.Revoke(m.Token())
	_, err := m.RefreshUser(ctx)
	require.Error(t, err)
	assert.True(t, apperr.IsAuth(err))

	assert.Equal(t, StateAnonymous, m.State())
	_, ok := m.CurrentUser()
	assert.False(t, ok)
	_, ok = f.storedToken(t)
	assert.False(t, ok)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		f := newFixture(t)
		st, err := f.manager().Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAnonymous, st)
	})

	t.Run("valid token", func(t *testing.T) {
		f := newFixture(t)
		first := f.manager()
		u := f.signIn(t, first)

		second := f.manager()
		st, err := second.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateIncomplete, st)
		cur, ok := second.CurrentUser()
		require.True(t, ok)
		assert.Equal(t, u.ID, cur.ID)
	})

	t.Run("rejected token is refreshed", func(t *testing.T) {
		f := newFixture(t)
		first := f.manager()
		u := f.signIn(t, first)
		old := first.Token()
		f.fake.Revoke(old)

		second := f.manager()
		st, err := second.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateIncomplete, st)
		assert.NotEqual(t, old, second.Token())
		cur, _ := second.CurrentUser()
		assert.Equal(t, u.ID, cur.ID)
	})

	t.Run("rejected token without refresh", func(t *testing.T) {
		f := newFixture(t)
		first := f.manager()
		f.signIn(t, first)
		f.fake.Revoke(first.Token())
		require.NoError(t, f.kv.Remove(ctx, store.KeyRefreshToken))

		second := f.manager()
		st, err := second.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAnonymous, st)
		_, ok := f.storedToken(t)
		assert.False(t, ok)
	})

	t.Run("server error keeps token", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t, f.manager())
		f.fake.FailNext(http.MethodGet, "/auth/me", http.StatusServiceUnavailable, "")

		m := f.manager()
		st, err := m.Restore(ctx)
		assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
		assert.Equal(t, StateUnknown, st)
		_, ok := f.storedToken(t)
		assert.True(t, ok)
	})
}

func TestProfileMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager()
	f.signIn(t, m)

	u, err := m.SwitchMode(ctx, models.ModeEmployer)
	require.NoError(t, err)
	assert.Equal(t, models.ModeEmployer, u.CurrentMode)

	_, err = m.SwitchMode(ctx, "admin")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	u, err = m.ToggleAvailability(ctx)
	require.NoError(t, err)
	require.NotNil(t, u.Availability)
	assert.False(t, u.Availability.IsAvailable)

	name := "Ravi Kumar"
	u, err = m.UpdateProfile(ctx, models.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, u.Name)
	cur, _ := m.CurrentUser()
	assert.Equal(t, name, cur.Name)

	_, err = m.UpdateProfile(ctx, models.ProfileUpdate{Skills: []string{" "}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, m.UpdateFCMToken(ctx, "fcm-1"))
	require.NoError(t, m.UpdateLocation(ctx, models.GeoPoint{Lat: 12.97, Lng: 77.59}))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(m.UpdateLocation(ctx, models.GeoPoint{Lat: 91})))
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager()
	u := f.signIn(t, m)

	f.fake.FailNext(http.MethodDelete, "/auth/account", http.StatusBadGateway, "")
	require.Error(t, m.DeleteAccount(ctx))
	assert.True(t, m.IsAuthenticated(), "a failed delete keeps the session")

	require.NoError(t, m.DeleteAccount(ctx))
	assert.Equal(t, StateAnonymous, m.State())
	_, exists := f.fake.User(u.ID)
	assert.False(t, exists)
}
