// Package session owns the single authenticated identity a client acts as:
// phone verification, token persistence, the cached user and sign-out.
//
// A Manager moves through Unknown, Anonymous, Incomplete and Complete.
// Restore leaves Unknown; ConfirmCode enters Incomplete or Complete;
// CompleteProfile moves Incomplete to Complete; SignOut, DeleteAccount and any
// auth-rejected backend reply return to Anonymous.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/api"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/media"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/phone"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/store"
)

type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateIncomplete
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateIncomplete:
		return "incomplete"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Authenticated reports whether a token and user are held.
func (s State) Authenticated() bool {
	return s == StateIncomplete || s == StateComplete
}

// Destination names a screen or command group the caller wants to reach.
type Destination string

const (
	DestSignIn            Destination = "sign-in"
	DestProfileCompletion Destination = "profile-completion"
	DestHome              Destination = "home"
)

// Verification is the handle of one in-flight phone confirmation.
type Verification struct {
	ID     string
	Phone  string
	SentAt time.Time
}

type Manager struct {
	api      *api.Client
	provider phone.Provider
	kv       store.KV
	uploader media.Uploader
	folder   string
	country  string
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	state    State
	token    string
	user     *models.User
	pending  *Verification
	fcmToken string
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// WithUploader enables local image paths in CompleteProfile and UpdateProfile.
func WithUploader(u media.Uploader, folder string) Option {
	return func(m *Manager) {
		m.uploader = u
		m.folder = folder
	}
}

// WithCountryCode sets the prefix for bare 10 digit numbers. Default "91".
func WithCountryCode(cc string) Option {
	return func(m *Manager) { m.country = cc }
}

// WithFCMToken sets the push token sent along with verify-token.
func WithFCMToken(tok string) Option {
	return func(m *Manager) { m.fcmToken = tok }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New wires the manager into client: the client reads the bearer token from
// the manager and reports auth rejections back to it.
func New(client *api.Client, provider phone.Provider, kv store.KV, opts ...Option) *Manager {
	m := &Manager{
		api:      client,
		provider: provider,
		kv:       kv,
		country:  "91",
		folder:   "gig",
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	client.SetTokenSource(m.bearer)
	client.SetUnauthorizedHook(m.Invalidate)
	return m
}

// bearer is the client's token source. The persisted token wins so that a
// token written by another process is picked up.
func (m *Manager) bearer(ctx context.Context) (string, error) {
	tok, ok, err := m.kv.Get(ctx, store.KeyAuthToken)
	if err != nil {
		return "", err
	}
	if ok {
		return tok, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentUser returns a copy of the cached user.
func (m *Manager) CurrentUser() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

func (m *Manager) IsAuthenticated() bool {
	return m.State().Authenticated()
}

// Token returns the in-memory bearer token, empty when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Pending returns the verification started by the last RequestCode.
func (m *Manager) Pending() (Verification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pending == nil {
		return Verification{}, false
	}
	return *m.pending, true
}

// Route gates navigation: signed-out users go to sign-in and users without a
// completed profile go to profile completion, whatever they asked for.
func (m *Manager) Route(dest Destination) Destination {
	switch m.State() {
	case StateIncomplete:
		return DestProfileCompletion
	case StateComplete:
		return dest
	}
	return DestSignIn
}

// adopt installs an authenticated session. Callers must not hold m.mu.
func (m *Manager) adopt(token string, u models.User) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.pending = nil
	return m.setUserLocked(u)
}

func (m *Manager) setUser(u models.User) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		// Signed out while the call was in flight.
		return m.state
	}
	return m.setUserLocked(u)
}

func (m *Manager) setUserLocked(u models.User) State {
	m.user = &u
	if u.IsProfileComplete {
		m.state = StateComplete
	} else {
		m.state = StateIncomplete
	}
	return m.state
}

func (m *Manager) clearLocal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	m.pending = nil
	m.state = StateAnonymous
}
