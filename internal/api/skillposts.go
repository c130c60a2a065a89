package api

import (
	"context"
	"net/http"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

type skillPostData struct {
	SkillPost models.SkillPost `json:"skillPost"`
}

// SkillPosts lists active posts from everyone, newest first.
func (c *Client) SkillPosts(ctx context.Context, page, limit int) (models.SkillPostPage, error) {
	return do[models.SkillPostPage](ctx, c, "api.SkillPosts", request{
		method: http.MethodGet,
		path:   PathSkillPosts,
		query:  pageQuery(nil, page, limit),
	})
}

func (c *Client) MySkillPosts(ctx context.Context) ([]models.SkillPost, error) {
	d, err := do[models.SkillPostPage](ctx, c, "api.MySkillPosts", request{
		method: http.MethodGet,
		path:   PathMySkillPosts,
	})
	return d.SkillPosts, err
}

func (c *Client) CreateSkillPost(ctx context.Context, f models.SkillPostFields) (models.SkillPost, error) {
	d, err := do[skillPostData](ctx, c, "api.CreateSkillPost", request{
		method: http.MethodPost,
		path:   PathSkillPosts,
		body:   f,
	})
	return d.SkillPost, err
}

func (c *Client) UpdateSkillPost(ctx context.Context, id string, f models.SkillPostFields) (models.SkillPost, error) {
	d, err := do[skillPostData](ctx, c, "api.UpdateSkillPost", request{
		method: http.MethodPut,
		path:   SkillPostPath(id),
		body:   f,
	})
	return d.SkillPost, err
}

func (c *Client) DeleteSkillPost(ctx context.Context, id string) error {
	_, err := do[Empty](ctx, c, "api.DeleteSkillPost", request{method: http.MethodDelete, path: SkillPostPath(id)})
	return err
}

func (c *Client) ToggleSkillPost(ctx context.Context, id string) (models.SkillPost, error) {
	d, err := do[skillPostData](ctx, c, "api.ToggleSkillPost", request{
		method: http.MethodPatch,
		path:   SkillPostTogglePath(id),
	})
	return d.SkillPost, err
}

// RequestSkill asks the post's owner for the skill; the server counts it.
func (c *Client) RequestSkill(ctx context.Context, id, message string) error {
	body := map[string]string{}
	if message != "" {
		body["message"] = message
	}
	_, err := do[Empty](ctx, c, "api.RequestSkill", request{
		method: http.MethodPost,
		path:   SkillPostRequestPath(id),
		body:   body,
	})
	return err
}
