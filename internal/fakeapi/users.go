package fakeapi

import (
	"net/http"
	"strings"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken  string `json:"idToken"`
		FCMToken string `json:"fcmToken"`
	}
	if !decodeBody(r, &body) || body.IDToken == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "idToken is required")
		return
	}
	ph, ok := s.verify(body.IDToken)
	if !ok {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	s.mu.Lock()
	id, existing := s.phones[ph]
	if !existing {
		id = s.newID()
		s.users[id] = &models.User{
			ID:           id,
			Phone:        ph,
			Skills:       []string{},
			CurrentMode:  models.ModeWorker,
			Availability: &models.Availability{IsAvailable: true},
			Rating:       &models.Rating{},
		}
		s.phones[ph] = id
	}
	if body.FCMToken != "" {
		s.fcmTokens[id] = body.FCMToken
	}

	token := body.IDToken
	if s.appTokens {
		token = "app-" + s.newID()
	}
	s.sessions[token] = id
	delete(s.revoked, token)
	user := *s.users[id]
	s.mu.Unlock()

	data := map[string]any{"user": user, "isNewUser": !existing}
	if s.appTokens {
		data["token"] = token
	}
	writeData(w, http.StatusOK, data)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, ok := s.userCopy(userID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) updateFCMToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FCMToken string `json:"fcmToken"`
	}
	if !decodeBody(r, &body) || body.FCMToken == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "fcmToken is required")
		return
	}
	s.mu.Lock()
	s.fcmTokens[userID(r)] = body.FCMToken
	s.mu.Unlock()
	writeMessage(w, "FCM token updated")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := bearer(r)
	s.mu.Lock()
	delete(s.sessions, token)
	s.revoked[token] = true
	delete(s.fcmTokens, userID(r))
	s.mu.Unlock()
	writeMessage(w, "Logged out successfully")
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	s.mu.Lock()
	if u, ok := s.users[id]; ok {
		delete(s.phones, u.Phone)
	}
	delete(s.users, id)
	delete(s.fcmTokens, id)
	for tok, uid := range s.sessions {
		if uid == id {
			delete(s.sessions, tok)
			s.revoked[tok] = true
		}
	}
	s.revoked[bearer(r)] = true
	s.mu.Unlock()
	writeMessage(w, "Account deleted")
}

func (s *Server) completeProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileInput
	if !decodeBody(r, &in) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	name := strings.TrimSpace(in.Name)
	skills := models.NormalizeSkills(in.Skills)
	switch {
	case name == "":
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name is required")
		return
	case len(skills) == 0:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "At least one skill is required")
		return
	case in.Age < 0 || in.Age > 120:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid age")
		return
	}

	s.mu.Lock()
	u, ok := s.users[userID(r)]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	u.Name = name
	u.Age = in.Age
	u.Skills = skills
	if in.ProfileImage != "" {
		u.ProfileImage = in.ProfileImage
	}
	u.IsProfileComplete = true
	out := *u
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"user": out})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if !decodeBody(r, &upd) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name cannot be empty")
		return
	}
	if upd.Skills != nil && len(models.NormalizeSkills(upd.Skills)) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "At least one skill is required")
		return
	}

	s.mu.Lock()
	u, ok := s.users[userID(r)]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.Skills != nil {
		u.Skills = models.NormalizeSkills(upd.Skills)
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	out := *u
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"user": out})
}

func (s *Server) switchMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode models.Mode `json:"mode"`
	}
	if !decodeBody(r, &body) || !body.Mode.Valid() {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Mode must be employer or worker")
		return
	}
	out, ok := s.mutateUser(userID(r), func(u *models.User) { u.CurrentMode = body.Mode })
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": out})
}

func (s *Server) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	out, ok := s.mutateUser(userID(r), func(u *models.User) {
		if u.Availability == nil {
			u.Availability = &models.Availability{}
		}
		a := *u.Availability
		a.IsAvailable = !a.IsAvailable
		u.Availability = &a
	})
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": out})
}

func (s *Server) updateLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if !decodeBody(r, &body) || body.Latitude == nil || body.Longitude == nil ||
		*body.Latitude < -90 || *body.Latitude > 90 || *body.Longitude < -180 || *body.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Valid latitude and longitude are required")
		return
	}
	writeMessage(w, "Location updated")
}

func (s *Server) userCopy(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

func (s *Server) mutateUser(id string, fn func(*models.User)) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	fn(u)
	return *u, true
}

// userRef renders a populated reference. Callers hold s.mu.
func (s *Server) userRef(id string) models.UserRef {
	u, ok := s.users[id]
	if !ok {
		return models.UserRef{ID: id}
	}
	ref := models.UserRef{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		Skills:       append([]string(nil), u.Skills...),
		ProfileImage: u.ProfileImage,
	}
	if u.Rating != nil {
		rt := *u.Rating
		ref.Rating = &rt
	}
	return ref
}
