// Package fakeapi is an in-memory marketplace backend. It serves the same
// routes and envelope as the real API with server-side semantics (verify or
// create, one live application per applicant, the accept cascade, terminal job
// statuses) so clients can be exercised end to end.
package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/phone"
)

// Prefix is where the REST routes are mounted.
const Prefix = "/api/v1"

// Verifier maps a provider identity token to the phone it proves.
type Verifier func(idToken string) (phone string, ok bool)

type Server struct {
	mu sync.Mutex

	users       map[string]*models.User
	phones      map[string]string // phone -> user id
	sessions    map[string]string // bearer token -> user id
	revoked     map[string]bool
	fcmTokens   map[string]string
	jobs        map[string]*models.Job
	jobOrder    []string
	apps        map[string]*models.JobApplication
	appOrder    []string
	engagements map[string]*models.AcceptedJob
	engOrder    []string
	ratings     map[string][]rating // engagement id -> ratings
	rooms       map[string]*models.ChatRoom
	messages    map[string][]models.ChatMessage
	posts       map[string]*models.SkillPost
	postOrder   []string

	hub *hub

	verify    Verifier
	appTokens bool
	now       func() time.Time
	logger    *zap.Logger
	limits    *limiter

	faults map[string][]fault
	calls  map[string]int

	router chi.Router
}

type rating struct {
	From   string
	Score  int
	Review string
}

type Option func(*Server)

// WithVerifier replaces the default, which accepts phone.Fake tokens.
func WithVerifier(v Verifier) Option {
	return func(s *Server) { s.verify = v }
}

// WithAppTokens makes verify-token issue its own session tokens instead of
// accepting the identity token as the bearer.
func WithAppTokens() Option {
	return func(s *Server) { s.appTokens = true }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit throttles each bearer token to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.limits = newLimiter(rps, burst) }
}

func New(opts ...Option) *Server {
	s := &Server{
		users:       map[string]*models.User{},
		phones:      map[string]string{},
		sessions:    map[string]string{},
		revoked:     map[string]bool{},
		fcmTokens:   map[string]string{},
		jobs:        map[string]*models.Job{},
		apps:        map[string]*models.JobApplication{},
		engagements: map[string]*models.AcceptedJob{},
		ratings:     map[string][]rating{},
		rooms:       map[string]*models.ChatRoom{},
		messages:    map[string][]models.ChatMessage{},
		posts:       map[string]*models.SkillPost{},
		faults:      map[string][]fault{},
		calls:       map[string]int{},
		verify:      phone.PhoneFromFakeToken,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub()
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recordCalls)

	r.Get("/ws/chat", s.chatSocket)

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/auth/verify-token", s.verifyToken)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			if s.limits != nil {
				r.Use(s.limits.middleware)
			}

			r.Get("/auth/me", s.me)
			r.Put("/auth/fcm-token", s.updateFCMToken)
			r.Post("/auth/logout", s.logout)
			r.Delete("/auth/account", s.deleteAccount)

			r.Get("/users/profile", s.me)
			r.Put("/users/profile", s.updateProfile)
			r.Post("/users/complete-profile", s.completeProfile)
			r.Put("/users/switch-mode", s.switchMode)
			r.Put("/users/toggle-availability", s.toggleAvailability)
			r.Put("/users/location", s.updateLocation)

			r.Post("/jobs", s.createJob)
			r.Get("/jobs/my-jobs", s.myJobs)
			r.Get("/jobs/available", s.availableJobs)
			r.Get("/jobs/{id}", s.getJob)
			r.Put("/jobs/{id}", s.updateJob)
			r.Put("/jobs/{id}/cancel", s.cancelJob)
			r.Put("/jobs/{id}/close", s.closeJob)
			r.Get("/jobs/{id}/applicants", s.applicants)

			r.Post("/applications/apply", s.apply)
			r.Get("/applications/my-applications", s.myApplications)
			r.Get("/applications/accepted-jobs", s.acceptedJobs)
			r.Get("/applications/incoming-requests", s.incomingRequests)
			r.Put("/applications/{id}", s.decide)
			r.Delete("/applications/{id}", s.withdraw)
			r.Put("/applications/accepted/{id}/complete", s.complete)
			r.Post("/applications/accepted/{id}/rate", s.rate)

			r.Get("/chat", s.chatRooms)
			r.Get("/chat/{id}", s.chatRoom)
			r.Get("/chat/{id}/messages", s.chatMessages)
			r.Post("/chat/{id}/message", s.sendChatMessage)

			r.Get("/skill-posts", s.skillPosts)
			r.Post("/skill-posts", s.createSkillPost)
			r.Get("/skill-posts/my-posts", s.mySkillPosts)
			r.Put("/skill-posts/{id}", s.updateSkillPost)
			r.Delete("/skill-posts/{id}", s.deleteSkillPost)
			r.Patch("/skill-posts/{id}/toggle-active", s.toggleSkillPost)
			r.Post("/skill-posts/{id}/request", s.requestSkill)
		})
	})
	return r
}

type ctxKey int

const userIDKey ctxKey = iota

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// authenticate accepts issued session tokens and, like a Firebase-backed
// server, any identity token that verifies for a known user.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
			return
		}
		id, ok := s.resolveToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func (s *Server) resolveToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[token] {
		return "", false
	}
	if id, ok := s.sessions[token]; ok {
		_, exists := s.users[id]
		return id, exists
	}
	if s.appTokens {
		return "", false
	}
	ph, ok := s.verify(token)
	if !ok {
		return "", false
	}
	id, ok := s.phones[ph]
	return id, ok
}

func (s *Server) newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeMessage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": message})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": false, "message": message}
	if code != "" {
		body["code"] = code
	}
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	return err == nil || errors.Is(err, io.EOF)
}
