package api

import (
	"context"
	"net/http"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

// VerifyResult is the backend's answer to an identity token exchange. Token is
// set when the backend issues its own session token; otherwise the identity
// token itself is the bearer.
type VerifyResult struct {
	User      models.User `json:"user"`
	IsNewUser bool        `json:"isNewUser"`
	Token     string      `json:"token,omitempty"`
}

type userData struct {
	User models.User `json:"user"`
}

// VerifyToken exchanges a provider identity token for the user record,
// creating the user on first sight. A rejection does not fire the
// unauthorized hook: there is no session to tear down yet.
func (c *Client) VerifyToken(ctx context.Context, idToken, fcmToken string) (VerifyResult, error) {
	body := map[string]string{"idToken": idToken}
	if fcmToken != "" {
		body["fcmToken"] = fcmToken
	}
	return do[VerifyResult](ctx, c, "api.VerifyToken", request{
		method:       http.MethodPost,
		path:         PathVerifyToken,
		body:         body,
		bearer:       idToken,
		skipAuthHook: true,
	})
}

// Me fetches the current user. With a bearer override it is used during
// restore, before the session adopts the token.
func (c *Client) Me(ctx context.Context, bearer string) (models.User, error) {
	d, err := do[userData](ctx, c, "api.Me", request{
		method:       http.MethodGet,
		path:         PathMe,
		bearer:       bearer,
		skipAuthHook: bearer != "",
	})
	return d.User, err
}

func (c *Client) UpdateFCMToken(ctx context.Context, fcmToken string) error {
	_, err := do[Empty](ctx, c, "api.UpdateFCMToken", request{
		method: http.MethodPut,
		path:   PathFCMToken,
		body:   map[string]string{"fcmToken": fcmToken},
	})
	return err
}

// Logout never triggers the unauthorized hook; the caller is already tearing
// the session down.
func (c *Client) Logout(ctx context.Context) error {
	_, err := do[Empty](ctx, c, "api.Logout", request{
		method:       http.MethodPost,
		path:         PathLogout,
		skipAuthHook: true,
	})
	return err
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	_, err := do[Empty](ctx, c, "api.DeleteAccount", request{
		method:       http.MethodDelete,
		path:         PathDeleteAccount,
		skipAuthHook: true,
	})
	return err
}
