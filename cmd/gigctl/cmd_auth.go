package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/phone"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/session"
	"github.com/saran-1305/job-assigning-app-frontend-main/pkg/utils"
)

func (c *cli) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "auth",
		Short:       "Sign in with a phone number and manage the stored session",
		Annotations: withGate(gateOpen),
	}
	cmd.AddCommand(
		c.authLoginCmd(),
		c.authRequestCodeCmd(),
		c.authConfirmCmd(),
		c.authStatusCmd(),
		c.authRefreshCmd(),
		c.authLogoutCmd(),
		c.authDeleteCmd(),
	)
	return cmd
}

// authLoginCmd runs request and confirm in one process, which the fake
// provider needs since it keeps verifications in memory.
func (c *cli) authLoginCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "login PHONE",
		Short: "Send a code to PHONE and confirm it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := c.session.RequestCode(ctx, args[0])
			if err != nil {
				return err
			}
			if _, ok := c.provider.(*phone.Fake); ok && !c.cfg.IsProduction() {
				c.printf(cmd, "fake phone provider: the code is %s\n", phone.FakeCode)
			}
			if code == "" {
				c.printf(cmd, "Enter the 6-digit code sent to %s: ", utils.MaskPhone(v.Phone))
				code, err = readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			u, err := c.session.ConfirmCode(ctx, v.ID, code)
			if err != nil {
				return err
			}
			return c.signedIn(cmd, u)
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "verification code; prompted for when empty")
	return cmd
}

func (c *cli) authRequestCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request-code PHONE",
		Short: "Send a verification code and print the verification id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.session.RequestCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.output == "json" {
				return c.render(cmd, v, nil)
			}
			c.printf(cmd, "Code sent to %s.\nConfirm with: gigctl auth confirm %s CODE\n", utils.MaskPhone(v.Phone), v.ID)
			return nil
		},
	}
}

func (c *cli) authConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm VERIFICATION-ID CODE",
		Short: "Confirm a code sent by request-code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.session.ConfirmCode(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.signedIn(cmd, u)
		},
	}
}

func (c *cli) signedIn(cmd *cobra.Command, u models.User) error {
	if c.output == "json" {
		return c.render(cmd, u, nil)
	}
	switch c.session.Route(session.DestHome) {
	case session.DestProfileCompletion:
		c.printf(cmd, "Signed in. Finish your profile: gigctl profile complete --name NAME --skills SKILL[,SKILL]\n")
	default:
		c.printf(cmd, "Signed in as %s.\n", orDash(u.Name))
	}
	return nil
}

func (c *cli) authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := c.session.Restore(cmd.Context())
			if err != nil {
				return err
			}
			u, _ := c.session.CurrentUser()
			if c.output == "json" {
				return c.render(cmd, struct {
					State string       `json:"state"`
					User  *models.User `json:"user,omitempty"`
				}{State: state.String(), User: userOrNil(u, state)}, nil)
			}
			c.printf(cmd, "Session: %s\n", state)
			if !state.Authenticated() {
				return nil
			}
			return c.render(cmd, u, userDetail(u))
		},
	}
}

func userOrNil(u models.User, s session.State) *models.User {
	if !s.Authenticated() {
		return nil
	}
	return &u
}

func (c *cli) authRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the session from the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := c.session.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if tok == "" {
				return notSignedIn()
			}
			c.printf(cmd, "Session renewed.\n")
			return nil
		},
	}
}

func (c *cli) authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.session.Restore(ctx); err != nil && !apperr.Retryable(err) {
				return err
			}
			if err := c.session.SignOut(ctx); err != nil {
				return err
			}
			c.printf(cmd, "Signed out.\n")
			return nil
		},
	}
}

func (c *cli) authDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the account on the server and sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return apperr.Validation("gigctl", "yes", "pass --yes to delete the account")
			}
			ctx := cmd.Context()
			if _, err := c.session.Restore(ctx); err != nil {
				return err
			}
			if err := c.session.DeleteAccount(ctx); err != nil {
				return err
			}
			c.printf(cmd, "Account deleted.\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read code: %w", err)
	}
	return strings.TrimSpace(line), nil
}
