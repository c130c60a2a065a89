package fakeapi

import (
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

// SeedUser registers a user with a completed profile and returns a bearer
// token for it, skipping phone verification.
func (s *Server) SeedUser(phone, name string, mode models.Mode, skills ...string) (token string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	u := &models.User{
		ID:                id,
		Phone:             phone,
		Name:              name,
		Skills:            models.NormalizeSkills(skills),
		IsProfileComplete: true,
		CurrentMode:       mode,
		Availability:      &models.Availability{IsAvailable: true},
		Rating:            &models.Rating{},
	}
	s.users[id] = u
	s.phones[phone] = id
	token = "seed-" + s.newID()
	s.sessions[token] = id
	return token, *u
}

// Revoke invalidates a bearer token as an expired session would.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	s.revoked[token] = true
}

// JobStatus reports the stored status of a job.
func (s *Server) JobStatus(id string) (models.JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return "", false
	}
	return j.Status, true
}

// ApplicationStatuses maps each application of a job to its status.
func (s *Server) ApplicationStatuses(jobID string) map[string]models.ApplicationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]models.ApplicationStatus{}
	for id, a := range s.apps {
		if a.Job.ID == jobID {
			out[id] = a.Status
		}
	}
	return out
}

// Engagements returns the engagements formed on a job.
func (s *Server) Engagements(jobID string) []models.AcceptedJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AcceptedJob
	for _, id := range s.engOrder {
		if e := s.engagements[id]; e.Job.ID == jobID {
			out = append(out, *e)
		}
	}
	return out
}

// User returns the stored user record.
func (s *Server) User(id string) (models.User, bool) {
	return s.userCopy(id)
}
