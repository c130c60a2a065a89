package fakeapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	var body struct {
		JobID   string `json:"jobId"`
		Message string `json:"message"`
	}
	if !decodeBody(r, &body) || body.JobID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "jobId is required")
		return
	}
	me := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[body.JobID]
	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	case j.CreatedBy.ID == me:
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You cannot apply to your own job")
		return
	case j.Status != models.JobOpen:
		writeError(w, http.StatusBadRequest, "JOB_NOT_OPEN", "This job is no longer accepting applications")
		return
	}
	for _, a := range s.apps {
		if a.Job.ID == j.ID && a.Applicant.ID == me && a.Status.Live() {
			writeError(w, http.StatusBadRequest, "ALREADY_APPLIED", "You have already applied for this job")
			return
		}
	}

	a := &models.JobApplication{
		ID:        s.newID(),
		Job:       models.Job{ID: j.ID},
		Applicant: models.UserRef{ID: me},
		Status:    models.ApplicationApplied,
		Message:   body.Message,
		AppliedAt: s.now().UTC(),
	}
	s.apps[a.ID] = a
	s.appOrder = append(s.appOrder, a.ID)
	writeData(w, http.StatusCreated, map[string]any{"application": s.renderApp(a)})
}

func (s *Server) myApplications(w http.ResponseWriter, r *http.Request) {
	status := models.ApplicationStatus(r.URL.Query().Get("status"))
	me := userID(r)

	s.mu.Lock()
	out := []models.JobApplication{}
	for i := len(s.appOrder) - 1; i >= 0; i-- {
		a := s.apps[s.appOrder[i]]
		if a.Applicant.ID == me && (status == "" || a.Status == status) {
			out = append(out, s.renderApp(a))
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"applications": out})
}

func (s *Server) incomingRequests(w http.ResponseWriter, r *http.Request) {
	me := userID(r)

	s.mu.Lock()
	out := []models.JobApplication{}
	for i := len(s.appOrder) - 1; i >= 0; i-- {
		a := s.apps[s.appOrder[i]]
		j, ok := s.jobs[a.Job.ID]
		if ok && j.CreatedBy.ID == me && a.Status == models.ApplicationApplied {
			out = append(out, s.renderApp(a))
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"applications": out})
}

func (s *Server) acceptedJobs(w http.ResponseWriter, r *http.Request) {
	status := models.EngagementStatus(r.URL.Query().Get("status"))
	me := userID(r)

	s.mu.Lock()
	out := []models.AcceptedJob{}
	for i := len(s.engOrder) - 1; i >= 0; i-- {
		e := s.engagements[s.engOrder[i]]
		if (e.Worker.ID == me || e.Employer.ID == me) && (status == "" || e.Status == status) {
			out = append(out, s.renderEngagement(e))
		}
	}
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{"acceptedJobs": out})
}

// decide applies an accept or reject. Accepting is atomic: the chosen
// application, every sibling, the job and the new engagement change together.
func (s *Server) decide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action models.Decision `json:"action"`
	}
	if !decodeBody(r, &body) || !body.Action.Valid() {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Action must be accept or reject")
		return
	}
	me := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Application not found")
		return
	}
	j, ok := s.jobs[a.Job.ID]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}
	if j.CreatedBy.ID != me {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the job creator can decide applications")
		return
	}
	if a.Status != models.ApplicationApplied {
		writeError(w, http.StatusConflict, "CONFLICT", "Application has already been "+string(a.Status))
		return
	}

	if body.Action == models.DecisionReject {
		a.Status = models.ApplicationRejected
		writeData(w, http.StatusOK, map[string]any{"application": s.renderApp(a)})
		return
	}

	if j.Status != models.JobOpen {
		writeError(w, http.StatusConflict, "JOB_NOT_OPEN", "Job is no longer open")
		return
	}

	a.Status = models.ApplicationAccepted
	for _, id := range s.appOrder {
		sib := s.apps[id]
		if sib.Job.ID == j.ID && sib.ID != a.ID && sib.Status == models.ApplicationApplied {
			sib.Status = models.ApplicationRejected
		}
	}
	j.Status = models.JobInProgress

	now := s.now().UTC()
	room := &models.ChatRoom{
		ID:           s.newID(),
		JobTitle:     j.Title,
		Participants: []models.UserRef{{ID: me}, {ID: a.Applicant.ID}},
		CreatedAt:    now,
	}
	e := &models.AcceptedJob{
		ID:         s.newID(),
		Job:        models.Job{ID: j.ID},
		Worker:     models.UserRef{ID: a.Applicant.ID},
		Employer:   models.UserRef{ID: me},
		Status:     models.EngagementActive,
		ChatRoomID: room.ID,
		AcceptedAt: now,
	}
	room.AcceptedJobID = e.ID
	s.rooms[room.ID] = room
	s.messages[room.ID] = []models.ChatMessage{{
		ID:        s.newID(),
		RoomID:    room.ID,
		Text:      "Application accepted. You can now chat about " + j.Title + ".",
		Type:      "system",
		Timestamp: now,
	}}
	s.engagements[e.ID] = e
	s.engOrder = append(s.engOrder, e.ID)

	accepted := s.renderEngagement(e)
	writeData(w, http.StatusOK, map[string]any{
		"application": s.renderApp(a),
		"acceptedJob": accepted,
		"chatRoomId":  room.ID,
	})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[chi.URLParam(r, "id")]
	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Application not found")
		return
	case a.Applicant.ID != userID(r):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not your application")
		return
	case a.Status != models.ApplicationApplied:
		writeError(w, http.StatusConflict, "CONFLICT", "Only pending applications can be withdrawn")
		return
	}
	a.Status = models.ApplicationWithdrawn
	writeMessage(w, "Application withdrawn")
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.activeEngagement(w, r)
	if !ok {
		return
	}
	e.Status = models.EngagementCompleted
	if j, ok := s.jobs[e.Job.ID]; ok && j.Status.CanTransitionTo(models.JobCompleted) {
		j.Status = models.JobCompleted
	}
	writeData(w, http.StatusOK, map[string]any{"acceptedJob": s.renderEngagement(e)})
}

func (s *Server) rate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rating int    `json:"rating"`
		Review string `json:"review"`
	}
	if !decodeBody(r, &body) || body.Rating < 1 || body.Rating > 5 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5")
		return
	}
	me := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.activeEngagement(w, r)
	if !ok {
		return
	}
	for _, rt := range s.ratings[e.ID] {
		if rt.From == me {
			writeError(w, http.StatusConflict, "CONFLICT", "You have already rated this job")
			return
		}
	}
	s.ratings[e.ID] = append(s.ratings[e.ID], rating{From: me, Score: body.Rating, Review: body.Review})

	ratee := e.Worker.ID
	if me == e.Worker.ID {
		ratee = e.Employer.ID
	}
	if u, ok := s.users[ratee]; ok {
		cur := models.Rating{}
		if u.Rating != nil {
			cur = *u.Rating
		}
		total := cur.Average*float64(cur.Count) + float64(body.Rating)
		cur.Count++
		cur.Average = total / float64(cur.Count)
		u.Rating = &cur
	}
	writeMessage(w, "Rating submitted")
}

// activeEngagement resolves {id} for a participant and requires Active.
// Callers hold s.mu.
func (s *Server) activeEngagement(w http.ResponseWriter, r *http.Request) (*models.AcceptedJob, bool) {
	e, ok := s.engagements[chi.URLParam(r, "id")]
	me := userID(r)
	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Accepted job not found")
		return nil, false
	case e.Worker.ID != me && e.Employer.ID != me:
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not a participant of this job")
		return nil, false
	case e.Status != models.EngagementActive:
		writeError(w, http.StatusConflict, "CONFLICT", "Job is already "+string(e.Status))
		return nil, false
	}
	return e, true
}

func (s *Server) renderApp(a *models.JobApplication) models.JobApplication {
	out := *a
	if j, ok := s.jobs[a.Job.ID]; ok {
		out.Job = s.renderJob(j)
	}
	out.Applicant = s.userRef(a.Applicant.ID)
	return out
}

func (s *Server) renderEngagement(e *models.AcceptedJob) models.AcceptedJob {
	out := *e
	if j, ok := s.jobs[e.Job.ID]; ok {
		out.Job = s.renderJob(j)
	}
	out.Worker = s.userRef(e.Worker.ID)
	out.Employer = s.userRef(e.Employer.ID)
	return out
}
