package main

import (
	"bufio"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/chat"
)

func (c *cli) chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the other party of an engagement",
	}
	cmd.AddCommand(
		c.chatRoomsCmd(),
		c.chatHistoryCmd(),
		c.chatSendCmd(),
		c.chatTailCmd(),
	)
	return cmd
}

func (c *cli) chatRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List your chat rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rooms, err := c.chat.Rooms(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, rooms, func(w io.Writer) {
				row(w, "ID", "JOB", "ENGAGEMENT", "OPENED")
				for _, r := range rooms {
					row(w, r.ID, orDash(r.JobTitle), orDash(r.AcceptedJobID), stamp(r.CreatedAt))
				}
			})
		},
	}
}

func (c *cli) chatHistoryCmd() *cobra.Command {
	var (
		before string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history ROOM-ID",
		Short: "Print past messages, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var at time.Time
			if before != "" {
				t, err := time.Parse(time.RFC3339, before)
				if err != nil {
					return apperr.Validation("gigctl", "before", "--before must be an RFC 3339 timestamp")
				}
				at = t
			}
			page, err := c.chat.History(cmd.Context(), args[0], at, limit)
			if err != nil {
				return err
			}
			return c.render(cmd, page, func(w io.Writer) {
				for _, m := range page.Messages {
					messageLine(w, m)
				}
				if page.HasMore && len(page.Messages) > 0 {
					row(w)
					row(w, "older messages:", "--before "+page.Messages[0].Timestamp.UTC().Format(time.RFC3339Nano))
				}
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "only messages older than this RFC 3339 time")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size, at most 100")
	return cmd
}

func (c *cli) chatSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send ROOM-ID TEXT",
		Short: "Post one message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.chat.Send(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.render(cmd, msg, func(w io.Writer) { messageLine(w, msg) })
		},
	}
}

// chatTailCmd prints the recent history, then follows the live stream. With
// --interactive every stdin line is sent to the room.
func (c *cli) chatTailCmd() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "tail ROOM-ID",
		Short: "Follow a room live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			roomID := args[0]
			out := cmd.OutOrStdout()

			transcript := chat.NewTranscript()
			page, err := c.chat.History(ctx, roomID, time.Time{}, 0)
			if err != nil {
				return err
			}
			for _, m := range transcript.Add(page.Messages...) {
				messageLine(out, m)
			}

			stream, err := chat.Dial(ctx, c.cfg.ChatWSURL, roomID, c.session.Token(),
				chat.WithLogger(c.logger),
				chat.WithTranscript(transcript),
				chat.WithBackfill(c.chat.Backfill(roomID)),
				chat.WithUnauthorizedHook(c.session.Invalidate),
			)
			if err != nil {
				return err
			}
			defer stream.Close()

			if interactive {
				go c.pipeInput(cmd, stream)
			}
			for m := range stream.Messages() {
				messageLine(out, m)
				c.chat.Record(ctx, m)
			}
			if err := stream.Err(); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "send each line read from stdin")
	return cmd
}

func (c *cli) pipeInput(cmd *cobra.Command, stream *chat.Stream) {
	ctx := cmd.Context()
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		if sc.Text() == "" {
			continue
		}
		if err := stream.Send(ctx, sc.Text()); err != nil {
			c.logger.Warn("message not sent", zap.String("room_id", stream.RoomID()), zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
