package main

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

func (c *cli) jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Post, browse and manage jobs",
	}
	cmd.AddCommand(
		c.jobsCreateCmd(),
		c.jobsUpdateCmd(),
		c.jobsGetCmd(),
		c.jobsListCmd(),
		c.jobsMineCmd(),
		c.jobsEndCmd("cancel", "Cancel a job; pending applicants are rejected"),
		c.jobsEndCmd("close", "Close a job to further applications"),
		c.jobsApplicantsCmd(),
	)
	return cmd
}

// jobFlags binds the create/update form.
type jobFlags struct {
	fields   models.JobFields
	lat, lng float64
}

func (j *jobFlags) bind(f *pflag.FlagSet) {
	f.StringVar(&j.fields.Title, "title", "", "job title")
	f.StringVar(&j.fields.Description, "description", "", "what needs doing")
	f.StringVar(&j.fields.Payment, "payment", "", "offered payment")
	f.StringVar(&j.fields.LocationText, "location", "", "address or area")
	f.StringVar(&j.fields.StartTime, "start", "", "when the job starts, free text")
	f.StringVar(&j.fields.TotalTime, "duration", "", "expected duration, free text")
	f.StringSliceVar(&j.fields.RequiredSkills, "skills", nil, "comma separated required skills")
	f.Float64Var(&j.lat, "lat", 0, "latitude of the job site")
	f.Float64Var(&j.lng, "lng", 0, "longitude of the job site")
}

// overlay copies the flags that were set onto base.
func (j *jobFlags) overlay(f *pflag.FlagSet, base models.JobFields) models.JobFields {
	set := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	set("title", &base.Title, j.fields.Title)
	set("description", &base.Description, j.fields.Description)
	set("payment", &base.Payment, j.fields.Payment)
	set("location", &base.LocationText, j.fields.LocationText)
	set("start", &base.StartTime, j.fields.StartTime)
	set("duration", &base.TotalTime, j.fields.TotalTime)
	if f.Changed("skills") {
		base.RequiredSkills = j.fields.RequiredSkills
	}
	if f.Changed("lat") || f.Changed("lng") {
		base.LocationGeo = &models.GeoPoint{Lat: j.lat, Lng: j.lng}
	}
	return base
}

func (c *cli) jobsCreateCmd() *cobra.Command {
	var jf jobFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := c.coord.CreateJob(cmd.Context(), jf.overlay(cmd.Flags(), models.JobFields{}))
			if err != nil {
				return err
			}
			return c.render(cmd, job, jobDetail(job))
		},
	}
	jf.bind(cmd.Flags())
	return cmd
}

func (c *cli) jobsUpdateCmd() *cobra.Command {
	var jf jobFlags
	cmd := &cobra.Command{
		Use:   "update JOB-ID",
		Short: "Edit an open job; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cur, err := c.coord.GetJob(ctx, args[0])
			if err != nil {
				return err
			}
			base := models.JobFields{
				Title:          cur.Title,
				Description:    cur.Description,
				StartTime:      cur.StartTime,
				Payment:        cur.Payment,
				LocationText:   cur.LocationText,
				LocationGeo:    cur.LocationGeo,
				TotalTime:      cur.TotalTime,
				RequiredSkills: cur.RequiredSkills,
			}
			job, err := c.coord.UpdateJob(ctx, args[0], jf.overlay(cmd.Flags(), base))
			if err != nil {
				return err
			}
			return c.render(cmd, job, jobDetail(job))
		},
	}
	jf.bind(cmd.Flags())
	return cmd
}

func (c *cli) jobsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get JOB-ID",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := c.coord.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, job, jobDetail(job))
		},
	}
}

func (c *cli) jobsListCmd() *cobra.Command {
	var (
		q        models.AvailableQuery
		lat, lng float64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse open jobs you can apply to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			if f.Changed("lat") != f.Changed("lng") {
				return apperr.Validation("gigctl", "lat", "--lat and --lng go together")
			}
			if f.Changed("lat") {
				q.Near = &models.GeoPoint{Lat: lat, Lng: lng}
			}
			list, err := c.coord.AvailableJobs(cmd.Context(), q)
			if err != nil {
				return err
			}
			return c.render(cmd, list, jobTable(list))
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "search around this latitude")
	f.Float64Var(&lng, "lng", 0, "search around this longitude")
	f.Float64Var(&q.MaxDistanceKm, "max-km", 0, "search radius in km")
	f.StringSliceVar(&q.Skills, "skills", nil, "only jobs needing one of these skills")
	f.IntVar(&q.Page, "page", 0, "page number")
	f.IntVar(&q.Limit, "limit", 0, "page size")
	return cmd
}

func (c *cli) jobsMineCmd() *cobra.Command {
	var (
		q      models.JobQuery
		status string
	)
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List the jobs you posted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Status = models.JobStatus(status)
			page, err := c.coord.MyJobs(cmd.Context(), q)
			if err != nil {
				return err
			}
			return c.render(cmd, page, func(w io.Writer) {
				jobTable(page.Jobs)(w)
				if page.Pages > 1 {
					row(w)
					row(w, "page", strconv.Itoa(max(q.Page, 1))+" of "+strconv.Itoa(page.Pages), "total", page.Total)
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&status, "status", "", "Open, InProgress, Completed, Closed or Cancelled")
	f.IntVar(&q.Page, "page", 0, "page number")
	f.IntVar(&q.Limit, "limit", 0, "page size")
	return cmd
}

func (c *cli) jobsEndCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " JOB-ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end := c.coord.CloseJob
			if verb == "cancel" {
				end = c.coord.CancelJob
			}
			job, err := end(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printf(cmd, "Job %s is now %s.\n", job.ID, job.Status)
			return nil
		},
	}
}

func (c *cli) jobsApplicantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "applicants JOB-ID",
		Short: "List applications to a job you posted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.coord.ListApplicants(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, list, applicationTable(list))
		},
	}
}
