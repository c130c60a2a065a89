package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/media"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

const maxAge = 120

// Profile is what the profile completion form collects. Image fields take a
// URL or, when an uploader is configured, a local file path.
type Profile struct {
	Name         string
	Skills       []string
	Age          int
	IDImage      string
	ProfileImage string
}

// CompleteProfile submits the profile and flips isProfileComplete. Calling it
// on a complete profile overwrites the fields.
func (m *Manager) CompleteProfile(ctx context.Context, p Profile) (models.User, error) {
	const op = "session.CompleteProfile"
	if !m.IsAuthenticated() {
		return models.User{}, apperr.ErrNotAuthenticated.At(op)
	}

	name := strings.TrimSpace(p.Name)
	skills := models.NormalizeSkills(p.Skills)
	switch {
	case name == "":
		return models.User{}, apperr.Validation(op, "name", "Please enter your name")
	case len(skills) == 0:
		return models.User{}, apperr.Validation(op, "skills", "Please select at least one skill")
	case p.Age < 0 || p.Age > maxAge:
		return models.User{}, apperr.Validation(op, "age", "Please enter a valid age")
	}

	idImage, err := m.resolveImage(ctx, op, "idImage", p.IDImage)
	if err != nil {
		return models.User{}, err
	}
	profileImage, err := m.resolveImage(ctx, op, "profileImage", p.ProfileImage)
	if err != nil {
		return models.User{}, err
	}

	u, err := m.api.CompleteProfile(ctx, models.ProfileInput{
		Name:         name,
		Age:          p.Age,
		Skills:       skills,
		AadhaarImage: idImage,
		ProfileImage: profileImage,
	})
	if err != nil {
		return models.User{}, attribute(op, err)
	}
	m.setUser(u)
	return u, nil
}

// UpdateProfile applies a partial edit. Empty skills and blank names are
// rejected locally.
func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	const op = "session.UpdateProfile"
	if !m.IsAuthenticated() {
		return models.User{}, apperr.ErrNotAuthenticated.At(op)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return models.User{}, apperr.Validation(op, "name", "Name cannot be empty")
		}
		upd.Name = &name
	}
	if upd.Skills != nil {
		upd.Skills = models.NormalizeSkills(upd.Skills)
		if len(upd.Skills) == 0 {
			return models.User{}, apperr.Validation(op, "skills", "Please select at least one skill")
		}
	}
	if upd.Age != nil && (*upd.Age < 0 || *upd.Age > maxAge) {
		return models.User{}, apperr.Validation(op, "age", "Please enter a valid age")
	}
	if upd.ProfileImage != nil {
		url, err := m.resolveImage(ctx, op, "profileImage", *upd.ProfileImage)
		if err != nil {
			return models.User{}, err
		}
		upd.ProfileImage = &url
	}

	u, err := m.api.UpdateProfile(ctx, upd)
	if err != nil {
		return models.User{}, attribute(op, err)
	}
	m.setUser(u)
	return u, nil
}

func (m *Manager) SwitchMode(ctx context.Context, mode models.Mode) (models.User, error) {
	const op = "session.SwitchMode"
	if !mode.Valid() {
		return models.User{}, apperr.Validation(op, "mode", "mode must be %q or %q", models.ModeEmployer, models.ModeWorker)
	}
	return m.mutate(ctx, op, func(ctx context.Context) (models.User, error) {
		return m.api.SwitchMode(ctx, mode)
	})
}

func (m *Manager) ToggleAvailability(ctx context.Context) (models.User, error) {
	return m.mutate(ctx, "session.ToggleAvailability", m.api.ToggleAvailability)
}

// RefreshUser re-reads the current user from the backend.
func (m *Manager) RefreshUser(ctx context.Context) (models.User, error) {
	return m.mutate(ctx, "session.RefreshUser", func(ctx context.Context) (models.User, error) {
		return m.api.Me(ctx, "")
	})
}

// UpdateFCMToken remembers the push token for the next sign-in and, when
// signed in, sends it now.
func (m *Manager) UpdateFCMToken(ctx context.Context, token string) error {
	const op = "session.UpdateFCMToken"
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validation(op, "fcmToken", "push token is required")
	}
	m.mu.Lock()
	m.fcmToken = token
	m.mu.Unlock()

	if !m.IsAuthenticated() {
		return nil
	}
	if err := m.api.UpdateFCMToken(ctx, token); err != nil {
		return attribute(op, err)
	}
	return nil
}

func (m *Manager) UpdateLocation(ctx context.Context, at models.GeoPoint) error {
	const op = "session.UpdateLocation"
	if at.Lat < -90 || at.Lat > 90 || at.Lng < -180 || at.Lng > 180 {
		return apperr.Validation(op, "location", "coordinates are out of range")
	}
	if !m.IsAuthenticated() {
		return apperr.ErrNotAuthenticated.At(op)
	}
	if err := m.api.UpdateLocation(ctx, at); err != nil {
		return attribute(op, err)
	}
	return nil
}

func (m *Manager) mutate(ctx context.Context, op string, call func(context.Context) (models.User, error)) (models.User, error) {
	if !m.IsAuthenticated() {
		return models.User{}, apperr.ErrNotAuthenticated.At(op)
	}
	u, err := call(ctx)
	if err != nil {
		return models.User{}, attribute(op, err)
	}
	m.setUser(u)
	return u, nil
}

// resolveImage passes URLs through and uploads local paths.
func (m *Manager) resolveImage(ctx context.Context, op, field, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || media.IsRemote(ref) {
		return ref, nil
	}
	if m.uploader == nil {
		return "", apperr.Validation(op, field, "image uploads are not configured; pass a URL instead")
	}
	url, err := m.uploader.Upload(ctx, ref, m.folder)
	if err != nil {
		m.logger.Warn("image upload failed", zap.String("field", field), zap.Error(err))
		return "", &apperr.Error{Kind: apperr.KindNetwork, Code: apperr.CodeNetworkError,
			Op: op, Field: field, Message: "image upload failed", Err: err}
	}
	return url, nil
}
