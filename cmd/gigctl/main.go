// Command gigctl drives the gig marketplace backend from a terminal: phone
// sign-in, profile, jobs, applications, engagements, chat and skill posts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
)

func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{envErr: envErr}
	err := c.root().ExecuteContext(ctx)
	if cerr := c.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(exitCode(err))
	}
}

// describe renders err for a person: the message, plus the field for input
// errors. Structured detail goes to the debug log.
func describe(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Code != "" && e.Kind.Class() != apperr.KindValidation {
		msg += " (" + e.Code + ")"
	}
	return msg
}

func exitCode(err error) int {
	switch apperr.KindOf(err).Class() {
	case apperr.KindValidation:
		return 2
	case apperr.KindUnauthorized, apperr.KindForbidden:
		return 3
	case apperr.KindConflict, apperr.KindNotFound:
		return 4
	case apperr.KindNetwork, apperr.KindTimeout, apperr.KindServer:
		return 5
	}
	return 1
}
