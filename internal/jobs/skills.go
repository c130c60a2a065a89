package jobs

import (
	"context"
	"strings"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

// Skill posts let workers advertise a skill that employers can request
// directly, outside any job.

func (c *Coordinator) SkillPosts(ctx context.Context, page, limit int) (models.SkillPostPage, error) {
	p, err := c.api.SkillPosts(ctx, page, limit)
	if err != nil {
		return models.SkillPostPage{}, attribute("jobs.SkillPosts", err)
	}
	return p, nil
}

func (c *Coordinator) MySkillPosts(ctx context.Context) ([]models.SkillPost, error) {
	list, err := c.api.MySkillPosts(ctx)
	if err != nil {
		return nil, attribute("jobs.MySkillPosts", err)
	}
	return list, nil
}

func (c *Coordinator) CreateSkillPost(ctx context.Context, f models.SkillPostFields) (models.SkillPost, error) {
	const op = "jobs.CreateSkillPost"
	f.Skill = strings.TrimSpace(f.Skill)
	f.Description = strings.TrimSpace(f.Description)
	switch {
	case f.Skill == "":
		return models.SkillPost{}, apperr.Validation(op, "skill", "Skill is required")
	case f.Description == "":
		return models.SkillPost{}, apperr.Validation(op, "description", "Description is required")
	}
	p, err := c.api.CreateSkillPost(ctx, f)
	if err != nil {
		return models.SkillPost{}, attribute(op, err)
	}
	return p, nil
}

// UpdateSkillPost leaves empty fields untouched.
func (c *Coordinator) UpdateSkillPost(ctx context.Context, id string, f models.SkillPostFields) (models.SkillPost, error) {
	const op = "jobs.UpdateSkillPost"
	if err := requireID(op, "skillPostId", id); err != nil {
		return models.SkillPost{}, err
	}
	f.Skill = strings.TrimSpace(f.Skill)
	f.Description = strings.TrimSpace(f.Description)
	if f == (models.SkillPostFields{}) {
		return models.SkillPost{}, apperr.Validation(op, "skillPost", "nothing to update")
	}
	p, err := c.api.UpdateSkillPost(ctx, id, f)
	if err != nil {
		return models.SkillPost{}, attribute(op, err)
	}
	return p, nil
}

func (c *Coordinator) DeleteSkillPost(ctx context.Context, id string) error {
	const op = "jobs.DeleteSkillPost"
	if err := requireID(op, "skillPostId", id); err != nil {
		return err
	}
	if err := c.api.DeleteSkillPost(ctx, id); err != nil {
		return attribute(op, err)
	}
	return nil
}

func (c *Coordinator) ToggleSkillPost(ctx context.Context, id string) (models.SkillPost, error) {
	const op = "jobs.ToggleSkillPost"
	if err := requireID(op, "skillPostId", id); err != nil {
		return models.SkillPost{}, err
	}
	p, err := c.api.ToggleSkillPost(ctx, id)
	if err != nil {
		return models.SkillPost{}, attribute(op, err)
	}
	return p, nil
}

func (c *Coordinator) RequestSkill(ctx context.Context, id, message string) error {
	const op = "jobs.RequestSkill"
	if err := requireID(op, "skillPostId", id); err != nil {
		return err
	}
	if err := c.api.RequestSkill(ctx, id, strings.TrimSpace(message)); err != nil {
		return attribute(op, err)
	}
	return nil
}
