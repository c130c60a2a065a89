package main

import (
	"github.com/spf13/cobra"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/session"
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit your profile",
	}
	cmd.AddCommand(
		c.profileCompleteCmd(),
		c.profileShowCmd(),
		c.profileUpdateCmd(),
		c.profileModeCmd(),
		c.profileAvailabilityCmd(),
		c.profileLocationCmd(),
		c.profileFCMCmd(),
	)
	return cmd
}

func (c *cli) showUser(cmd *cobra.Command, u models.User) error {
	return c.render(cmd, u, userDetail(u))
}

func (c *cli) profileCompleteCmd() *cobra.Command {
	var p session.Profile
	cmd := &cobra.Command{
		Use:         "complete",
		Short:       "Fill in the profile required before anything else",
		Args:        cobra.NoArgs,
		Annotations: withGate(gateSignedIn),
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.session.CompleteProfile(cmd.Context(), p)
			if err != nil {
				return err
			}
			return c.showUser(cmd, u)
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "your name")
	f.StringSliceVar(&p.Skills, "skills", nil, "comma separated skills")
	f.IntVar(&p.Age, "age", 0, "age in years")
	f.StringVar(&p.IDImage, "id-image", "", "identity document: URL or local image path")
	f.StringVar(&p.ProfileImage, "photo", "", "profile photo: URL or local image path")
	return cmd
}

func (c *cli) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Fetch and print your profile",
		Args:        cobra.NoArgs,
		Annotations: withGate(gateSignedIn),
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.session.RefreshUser(cmd.Context())
			if err != nil {
				return err
			}
			return c.showUser(cmd, u)
		},
	}
}

func (c *cli) profileUpdateCmd() *cobra.Command {
	var (
		name, photo string
		age         int
		skills      []string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change individual profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var upd models.ProfileUpdate
			f := cmd.Flags()
			if f.Changed("name") {
				upd.Name = &name
			}
			if f.Changed("age") {
				upd.Age = &age
			}
			if f.Changed("skills") {
				upd.Skills = skills
			}
			if f.Changed("photo") {
				upd.ProfileImage = &photo
			}
			if upd.Name == nil && upd.Age == nil && upd.Skills == nil && upd.ProfileImage == nil {
				return apperr.Validation("gigctl", "profile", "nothing to update")
			}
			u, err := c.session.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return err
			}
			return c.showUser(cmd, u)
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.IntVar(&age, "age", 0, "new age")
	f.StringSliceVar(&skills, "skills", nil, "replacement skill list")
	f.StringVar(&photo, "photo", "", "profile photo: URL or local image path")
	return cmd
}

func (c *cli) profileModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mode employer|worker",
		Short:     "Switch between posting jobs and looking for work",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.ModeEmployer), string(models.ModeWorker)},
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.session.SwitchMode(cmd.Context(), models.Mode(args[0]))
			if err != nil {
				return err
			}
			c.printf(cmd, "Now in %s mode.\n", u.CurrentMode)
			return nil
		},
	}
}

func (c *cli) profileAvailabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "availability",
		Short: "Toggle whether you are available for work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.session.ToggleAvailability(cmd.Context())
			if err != nil {
				return err
			}
			available := u.Availability != nil && u.Availability.IsAvailable
			c.printf(cmd, "Available: %t\n", available)
			return nil
		},
	}
}

func (c *cli) profileLocationCmd() *cobra.Command {
	var at models.GeoPoint
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Report your current coordinates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.session.UpdateLocation(cmd.Context(), at); err != nil {
				return err
			}
			c.printf(cmd, "Location updated.\n")
			return nil
		},
	}
	cmd.Flags().Float64Var(&at.Lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&at.Lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func (c *cli) profileFCMCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "push-token TOKEN",
		Short:       "Register a push notification token",
		Args:        cobra.ExactArgs(1),
		Annotations: withGate(gateSignedIn),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.session.UpdateFCMToken(cmd.Context(), args[0])
		},
	}
}
