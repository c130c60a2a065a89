package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func (c *cli) applyCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "apply JOB-ID",
		Short: "Apply to an open job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// Prime the local view so a repeat is caught before the request.
			if _, err := c.coord.MyApplications(ctx, ""); err != nil {
				return err
			}
			app, err := c.coord.Apply(ctx, args[0], message)
			if err != nil {
				return err
			}
			if c.output == "json" {
				return c.render(cmd, app, nil)
			}
			c.printf(cmd, "Applied to %s (application %s).\n", orDash(app.Job.Title), app.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "note for the employer")
	return cmd
}

func (c *cli) withdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw APPLICATION-ID",
		Short: "Withdraw a pending application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.coord.Withdraw(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printf(cmd, "Application withdrawn.\n")
			return nil
		},
	}
}

func (c *cli) applicationsCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "List the applications you sent",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.coord.MyApplications(cmd.Context(), models.ApplicationStatus(status))
			if err != nil {
				return err
			}
			return c.render(cmd, list, applicationTable(list))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Applied, Accepted, Rejected or Withdrawn")
	return cmd
}

func (c *cli) requestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requests",
		Short: "List pending applications across the jobs you posted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.coord.IncomingRequests(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, list, applicationTable(list))
		},
	}
}

func (c *cli) decideCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "decide APPLICATION-ID accept|reject",
		Short:     "Accept or reject an application to one of your jobs",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.DecisionAccept), string(models.DecisionReject)},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.coord.Decide(cmd.Context(), args[0], models.Decision(args[1]))
			if err != nil {
				return err
			}
			if res.RefreshErr != nil {
				c.logger.Warn("lists may be stale after the decision", zap.Error(res.RefreshErr))
			}
			if c.output == "json" {
				return c.render(cmd, res.DecisionResult, nil)
			}
			if models.Decision(args[1]) == models.DecisionReject {
				c.printf(cmd, "Application rejected.\n")
				return nil
			}
			c.printf(cmd, "Application accepted.\n")
			if res.ChatRoomID != "" {
				c.printf(cmd, "Chat with the worker: gigctl chat tail %s\n", res.ChatRoomID)
			}
			return nil
		},
	}
}

func (c *cli) engagementsCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "engagements",
		Short: "List accepted jobs you work on or employ for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.coord.AcceptedJobs(cmd.Context(), models.EngagementStatus(status))
			if err != nil {
				return err
			}
			return c.render(cmd, list, engagementTable(list))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Active or Completed")
	return cmd
}

func (c *cli) completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete ENGAGEMENT-ID",
		Short: "Mark an active engagement as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.coord.CompleteEngagement(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printf(cmd, "Engagement %s is %s.\n", e.ID, e.Status)
			return nil
		},
	}
}

func (c *cli) rateCmd() *cobra.Command {
	var review string
	cmd := &cobra.Command{
		Use:   "rate ENGAGEMENT-ID SCORE",
		Short: "Rate the other party of an active engagement from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return apperr.Validation("gigctl", "rating", "score must be a whole number")
			}
			if err := c.coord.Rate(cmd.Context(), args[0], score, review); err != nil {
				return err
			}
			c.printf(cmd, "Thanks for rating.\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&review, "review", "", "optional written review")
	return cmd
}
