package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func (c *cli) skillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Advertise skills and request workers directly",
	}
	cmd.AddCommand(
		c.skillsListCmd(),
		c.skillsMineCmd(),
		c.skillsPostCmd(),
		c.skillsUpdateCmd(),
		c.skillsDeleteCmd(),
		c.skillsToggleCmd(),
		c.skillsRequestCmd(),
	)
	return cmd
}

func (c *cli) skillsListCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse active skill posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.coord.SkillPosts(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			return c.render(cmd, p, func(w io.Writer) {
				skillPostTable(p.SkillPosts)(w)
				if pg := p.Pagination; pg != nil && pg.Pages > 1 {
					row(w)
					row(w, "page", pg.Page, "of", pg.Pages)
				}
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	return cmd
}

func (c *cli) skillsMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own skill posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.coord.MySkillPosts(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, list, skillPostTable(list))
		},
	}
}

func bindSkillFields(cmd *cobra.Command, f *models.SkillPostFields) {
	cmd.Flags().StringVar(&f.Skill, "skill", "", "skill name")
	cmd.Flags().StringVar(&f.Description, "description", "", "what you offer")
	cmd.Flags().StringVar(&f.Photo, "photo", "", "photo URL")
}

func (c *cli) skillsPostCmd() *cobra.Command {
	var f models.SkillPostFields
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Advertise a skill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.coord.CreateSkillPost(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.render(cmd, p, skillPostTable([]models.SkillPost{p}))
		},
	}
	bindSkillFields(cmd, &f)
	return cmd
}

func (c *cli) skillsUpdateCmd() *cobra.Command {
	var f models.SkillPostFields
	cmd := &cobra.Command{
		Use:   "update POST-ID",
		Short: "Edit a skill post; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.coord.UpdateSkillPost(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			return c.render(cmd, p, skillPostTable([]models.SkillPost{p}))
		},
	}
	bindSkillFields(cmd, &f)
	return cmd
}

func (c *cli) skillsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete POST-ID",
		Short: "Remove a skill post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.coord.DeleteSkillPost(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printf(cmd, "Skill post deleted.\n")
			return nil
		},
	}
}

func (c *cli) skillsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle POST-ID",
		Short: "Pause or resume a skill post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.coord.ToggleSkillPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printf(cmd, "Skill post %s active: %t\n", p.ID, p.IsActive)
			return nil
		},
	}
}

func (c *cli) skillsRequestCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "request POST-ID",
		Short: "Ask the worker behind a skill post to get in touch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.coord.RequestSkill(cmd.Context(), args[0], message); err != nil {
				return err
			}
			c.printf(cmd, "Request sent.\n")
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "note for the worker")
	return cmd
}
