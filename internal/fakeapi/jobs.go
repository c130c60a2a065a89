package fakeapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

const (
	defaultPageSize      = 20
	defaultMaxDistanceKm = 50
)

func validJobFields(w http.ResponseWriter, f models.JobFields) bool {
	for _, field := range []struct{ name, value string }{
		{"Title", f.Title},
		{"Description", f.Description},
		{"Payment", f.Payment},
		{"Location", f.LocationText},
	} {
		if field.value == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", field.name+" is required")
			return false
		}
	}
	return true
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var f models.JobFields
	if !decodeBody(r, &f) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	f = f.Trimmed()
	if !validJobFields(w, f) {
		return
	}

	s.mu.Lock()
	j := &models.Job{
		ID:        s.newID(),
		Status:    models.JobOpen,
		CreatedBy: models.UserRef{ID: userID(r)},
		CreatedAt: s.now().UTC(),
	}
	applyJobFields(j, f)
	s.jobs[j.ID] = j
	s.jobOrder = append(s.jobOrder, j.ID)
	out := s.renderJob(j)
	s.mu.Unlock()

	writeData(w, http.StatusCreated, map[string]any{"job": out})
}

func applyJobFields(j *models.Job, f models.JobFields) {
	j.Title = f.Title
	j.Description = f.Description
	j.StartTime = f.StartTime
	j.Payment = f.Payment
	j.LocationText = f.LocationText
	j.LocationGeo = f.LocationGeo
	j.TotalTime = f.TotalTime
	j.RequiredSkills = f.RequiredSkills
}

func (s *Server) myJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := models.JobStatus(q.Get("status"))
	me := userID(r)

	s.mu.Lock()
	var all []models.Job
	for i := len(s.jobOrder) - 1; i >= 0; i-- {
		j := s.jobs[s.jobOrder[i]]
		if j.CreatedBy.ID != me || (status != "" && j.Status != status) {
			continue
		}
		all = append(all, s.renderJob(j))
	}
	s.mu.Unlock()

	page, limit := pageParams(q.Get("page"), q.Get("limit"))
	pages := (len(all) + limit - 1) / limit
	writeData(w, http.StatusOK, models.JobPage{Jobs: slicePage(all, page, limit), Total: len(all), Pages: pages})
}

func (s *Server) availableJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	me := userID(r)

	var near *models.GeoPoint
	if lat, err := strconv.ParseFloat(q.Get("latitude"), 64); err == nil {
		if lng, err := strconv.ParseFloat(q.Get("longitude"), 64); err == nil {
			near = &models.GeoPoint{Lat: lat, Lng: lng}
		}
	}
	maxKm := float64(defaultMaxDistanceKm)
	if v, err := strconv.ParseFloat(q.Get("maxDistance"), 64); err == nil && v > 0 {
		maxKm = v
	}
	var skills []string
	if v := q.Get("skills"); v != "" {
		skills = models.NormalizeSkills(strings.Split(v, ","))
	}

	s.mu.Lock()
	var out []models.Job
	for i := len(s.jobOrder) - 1; i >= 0; i-- {
		j := s.jobs[s.jobOrder[i]]
		if j.Status != models.JobOpen || j.CreatedBy.ID == me {
			continue
		}
		if !skillsOverlap(j.RequiredSkills, skills) {
			continue
		}
		if near != nil && j.LocationGeo != nil && distanceKm(*near, *j.LocationGeo) > maxKm {
			continue
		}
		out = append(out, s.renderJob(j))
	}
	s.mu.Unlock()

	page, limit := pageParams(q.Get("page"), q.Get("limit"))
	writeData(w, http.StatusOK, map[string]any{"jobs": nonNil(slicePage(out, page, limit))})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	j, ok := s.jobs[chi.URLParam(r, "id")]
	var out models.Job
	if ok {
		out = s.renderJob(j)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"job": out})
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	var f models.JobFields
	if !decodeBody(r, &f) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	f = f.Trimmed()
	if !validJobFields(w, f) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	if j.Status != models.JobOpen {
		writeError(w, http.StatusConflict, "CONFLICT", "Only open jobs can be edited")
		return
	}
	applyJobFields(j, f)
	writeData(w, http.StatusOK, map[string]any{"job": s.renderJob(j)})
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	s.endJob(w, r, models.JobCancelled)
}

func (s *Server) closeJob(w http.ResponseWriter, r *http.Request) {
	s.endJob(w, r, models.JobClosed)
}

// endJob moves a job into a terminal status. Pending applications are
// rejected; cancelling also cancels the active engagement.
func (s *Server) endJob(w http.ResponseWriter, r *http.Request, next models.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	if !j.Status.CanTransitionTo(next) {
		writeError(w, http.StatusConflict, "CONFLICT", "Job is already "+string(j.Status))
		return
	}
	j.Status = next

	for _, id := range s.appOrder {
		a := s.apps[id]
		if a.Job.ID == j.ID && a.Status == models.ApplicationApplied {
			a.Status = models.ApplicationRejected
		}
	}
	if next == models.JobCancelled {
		for _, e := range s.engagements {
			if e.Job.ID == j.ID && e.Status == models.EngagementActive {
				e.Status = models.EngagementCancelled
			}
		}
	}
	writeData(w, http.StatusOK, map[string]any{"job": s.renderJob(j)})
}

func (s *Server) applicants(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.ownedJob(w, r)
	if !ok {
		return
	}
	out := []models.JobApplication{}
	for _, id := range s.appOrder {
		a := s.apps[id]
		if a.Job.ID == j.ID && a.Status != models.ApplicationWithdrawn {
			out = append(out, s.renderApp(a))
		}
	}
	writeData(w, http.StatusOK, map[string]any{"applications": out})
}

// ownedJob resolves {id} and writes 404 or 403 itself. Callers hold s.mu.
func (s *Server) ownedJob(w http.ResponseWriter, r *http.Request) (*models.Job, bool) {
	j, ok := s.jobs[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return nil, false
	}
	if j.CreatedBy.ID != userID(r) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the job creator can do this")
		return nil, false
	}
	return j, true
}

// renderJob returns a populated copy. Callers hold s.mu.
func (s *Server) renderJob(j *models.Job) models.Job {
	out := *j
	out.CreatedBy = s.userRef(j.CreatedBy.ID)
	out.RequiredSkills = append([]string(nil), j.RequiredSkills...)
	if j.LocationGeo != nil {
		g := *j.LocationGeo
		out.LocationGeo = &g
	}
	out.ApplicantCount = 0
	for _, a := range s.apps {
		if a.Job.ID == j.ID && a.Status.Live() {
			out.ApplicantCount++
		}
	}
	return out
}

func skillsOverlap(required, wanted []string) bool {
	if len(wanted) == 0 || len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(required))
	for _, s := range required {
		set[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range wanted {
		if _, ok := set[strings.ToLower(s)]; ok {
			return true
		}
	}
	return false
}

// distanceKm is the haversine great-circle distance.
func distanceKm(a, b models.GeoPoint) float64 {
	const earthRadiusKm = 6371
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func pageParams(pageStr, limitStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	return page, limit
}

func slicePage[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
