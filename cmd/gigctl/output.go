package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

// render writes v as indented JSON with -o json, otherwise through table.
func (c *cli) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if c.output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func row(w io.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func jobTable(jobs []models.Job) func(io.Writer) {
	return func(w io.Writer) {
		row(w, "ID", "STATUS", "TITLE", "PAYMENT", "LOCATION", "APPLIED")
		for _, j := range jobs {
			applied := "-"
			if j.HasApplied {
				applied = string(j.ApplicationStatus)
			}
			row(w, j.ID, j.Status, j.Title, j.Payment, j.LocationText, applied)
		}
	}
}

func jobDetail(j models.Job) func(io.Writer) {
	return func(w io.Writer) {
		row(w, "ID", j.ID)
		row(w, "Title", j.Title)
		row(w, "Status", j.Status)
		row(w, "Description", j.Description)
		row(w, "Payment", j.Payment)
		row(w, "Location", j.LocationText)
		if g := j.LocationGeo; g != nil {
			row(w, "Coordinates", fmt.Sprintf("%.5f, %.5f", g.Lat, g.Lng))
		}
		row(w, "Starts", orDash(j.StartTime))
		row(w, "Duration", orDash(j.TotalTime))
		row(w, "Skills", orDash(strings.Join(j.RequiredSkills, ", ")))
		row(w, "Posted by", orDash(j.CreatedBy.Name))
		row(w, "Applicants", j.ApplicantCount)
	}
}

func applicationTable(apps []models.JobApplication) func(io.Writer) {
	return func(w io.Writer) {
		row(w, "ID", "STATUS", "JOB", "APPLICANT", "APPLIED")
		for _, a := range apps {
			job := a.Job.Title
			if job == "" {
				job = a.Job.ID
			}
			row(w, a.ID, a.Status, job, orDash(a.Applicant.Name), stamp(a.AppliedAt))
		}
	}
}

func engagementTable(list []models.AcceptedJob) func(io.Writer) {
	return func(w io.Writer) {
		row(w, "ID", "STATUS", "JOB", "WORKER", "EMPLOYER", "CHAT ROOM")
		for _, e := range list {
			job := e.Job.Title
			if job == "" {
				job = e.Job.ID
			}
			row(w, e.ID, e.Status, job, orDash(e.Worker.Name), orDash(e.Employer.Name), orDash(e.ChatRoomID))
		}
	}
}

func userDetail(u models.User) func(io.Writer) {
	return func(w io.Writer) {
		row(w, "ID", u.ID)
		row(w, "Phone", u.Phone)
		row(w, "Name", orDash(u.Name))
		if u.Age > 0 {
			row(w, "Age", u.Age)
		}
		row(w, "Skills", orDash(strings.Join(u.Skills, ", ")))
		row(w, "Mode", orDash(string(u.CurrentMode)))
		row(w, "Profile complete", u.IsProfileComplete)
		if u.Availability != nil {
			row(w, "Available", u.Availability.IsAvailable)
		}
		if u.Rating != nil && u.Rating.Count > 0 {
			row(w, "Rating", fmt.Sprintf("%.1f (%d)", u.Rating.Average, u.Rating.Count))
		}
	}
}

func messageLine(w io.Writer, m models.ChatMessage) {
	sender := m.SenderID
	if m.Type == "system" {
		sender = "*"
	}
	row(w, stamp(m.Timestamp), orDash(sender), m.Text)
}

func skillPostTable(posts []models.SkillPost) func(io.Writer) {
	return func(w io.Writer) {
		row(w, "ID", "SKILL", "BY", "ACTIVE", "REQUESTS", "DESCRIPTION")
		for _, p := range posts {
			row(w, p.ID, p.Skill, orDash(p.User.Name), p.IsActive, p.Stats.Requests, p.Description)
		}
	}
}
