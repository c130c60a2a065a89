package fakeapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func (s *Server) skillPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q.Get("page"), q.Get("limit"))

	s.mu.Lock()
	var all []models.SkillPost
	for i := len(s.postOrder) - 1; i >= 0; i-- {
		p := s.posts[s.postOrder[i]]
		if p.IsActive {
			all = append(all, s.renderPost(p))
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, models.SkillPostPage{
		SkillPosts: slicePage(all, page, limit),
		Pagination: &models.Pagination{
			Total: len(all),
			Page:  page,
			Limit: limit,
			Pages: (len(all) + limit - 1) / limit,
		},
	})
}

func (s *Server) mySkillPosts(w http.ResponseWriter, r *http.Request) {
	me := userID(r)

	s.mu.Lock()
	out := []models.SkillPost{}
	for i := len(s.postOrder) - 1; i >= 0; i-- {
		p := s.posts[s.postOrder[i]]
		if p.User.ID == me {
			out = append(out, s.renderPost(p))
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, models.SkillPostPage{SkillPosts: out})
}

func (s *Server) createSkillPost(w http.ResponseWriter, r *http.Request) {
	var f models.SkillPostFields
	if !decodeBody(r, &f) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	f.Skill = strings.TrimSpace(f.Skill)
	f.Description = strings.TrimSpace(f.Description)
	if f.Skill == "" || f.Description == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Skill and description are required")
		return
	}

	s.mu.Lock()
	now := s.now().UTC()
	p := &models.SkillPost{
		ID:          s.newID(),
		User:        models.UserRef{ID: userID(r)},
		Skill:       f.Skill,
		Description: f.Description,
		Photo:       f.Photo,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.posts[p.ID] = p
	s.postOrder = append(s.postOrder, p.ID)
	out := s.renderPost(p)
	s.mu.Unlock()

	writeData(w, http.StatusCreated, map[string]any{"skillPost": out})
}

func (s *Server) updateSkillPost(w http.ResponseWriter, r *http.Request) {
	var f models.SkillPostFields
	if !decodeBody(r, &f) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ownedPost(w, r)
	if !ok {
		return
	}
	if v := strings.TrimSpace(f.Skill); v != "" {
		p.Skill = v
	}
	if v := strings.TrimSpace(f.Description); v != "" {
		p.Description = v
	}
	if f.Photo != "" {
		p.Photo = f.Photo
	}
	p.UpdatedAt = s.now().UTC()
	writeData(w, http.StatusOK, map[string]any{"skillPost": s.renderPost(p)})
}

func (s *Server) deleteSkillPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ownedPost(w, r)
	if !ok {
		return
	}
	delete(s.posts, p.ID)
	for i, id := range s.postOrder {
		if id == p.ID {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	writeMessage(w, "Skill post deleted")
}

func (s *Server) toggleSkillPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ownedPost(w, r)
	if !ok {
		return
	}
	p.IsActive = !p.IsActive
	p.UpdatedAt = s.now().UTC()
	writeData(w, http.StatusOK, map[string]any{"skillPost": s.renderPost(p)})
}

func (s *Server) requestSkill(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[chi.URLParam(r, "id")]
	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Skill post not found")
		return
	case p.User.ID == userID(r):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "You cannot request your own skill")
		return
	case !p.IsActive:
		writeError(w, http.StatusConflict, "CONFLICT", "This skill post is not active")
		return
	}
	p.Stats.Requests++
	writeMessage(w, "Request sent")
}

// ownedPost resolves {id} for its owner. Callers hold s.mu.
func (s *Server) ownedPost(w http.ResponseWriter, r *http.Request) (*models.SkillPost, bool) {
	p, ok := s.posts[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Skill post not found")
		return nil, false
	}
	if p.User.ID != userID(r) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not your skill post")
		return nil, false
	}
	return p, true
}

func (s *Server) renderPost(p *models.SkillPost) models.SkillPost {
	out := *p
	out.User = s.userRef(p.User.ID)
	return out
}
