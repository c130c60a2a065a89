package api

import (
	"context"
	"net/http"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func (c *Client) Profile(ctx context.Context) (models.User, error) {
	d, err := do[userData](ctx, c, "api.Profile", request{method: http.MethodGet, path: PathProfile})
	return d.User, err
}

func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	d, err := do[userData](ctx, c, "api.UpdateProfile", request{
		method: http.MethodPut,
		path:   PathProfile,
		body:   upd,
	})
	return d.User, err
}

// CompleteProfile submits the first-run profile and flips isProfileComplete
// server side. Repeating it overwrites the same fields.
func (c *Client) CompleteProfile(ctx context.Context, in models.ProfileInput) (models.User, error) {
	d, err := do[userData](ctx, c, "api.CompleteProfile", request{
		method: http.MethodPost,
		path:   PathCompleteProfile,
		body:   in,
	})
	return d.User, err
}

func (c *Client) SwitchMode(ctx context.Context, mode models.Mode) (models.User, error) {
	d, err := do[userData](ctx, c, "api.SwitchMode", request{
		method: http.MethodPut,
		path:   PathSwitchMode,
		body:   map[string]models.Mode{"mode": mode},
	})
	return d.User, err
}

func (c *Client) ToggleAvailability(ctx context.Context) (models.User, error) {
	d, err := do[userData](ctx, c, "api.ToggleAvailability", request{
		method: http.MethodPut,
		path:   PathToggleAvailability,
	})
	return d.User, err
}

func (c *Client) UpdateLocation(ctx context.Context, at models.GeoPoint) error {
	_, err := do[Empty](ctx, c, "api.UpdateLocation", request{
		method: http.MethodPut,
		path:   PathLocation,
		body:   map[string]float64{"latitude": at.Lat, "longitude": at.Lng},
	})
	return err
}
