// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/display"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/util"
)

func (a *App) newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the backend's agents",
	}
	cmd.AddCommand(a.newChatSendCmd(), a.newChatStreamCmd())
	return cmd
}

func (a *App) newChatSendCmd() *cobra.Command {
	var chatContext string
	cmd := &cobra.Command{
		Use:   "send <message...>",
		Short: "Send one message and print the answer",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctxData, err := api.ParseJSONObject(chatContext)
			if err != nil {
				return err
			}
			message := util.NormalizeInput(strings.Join(args, " "))

			resp, err := a.call(cmd.Context(), "Waiting for the agent", func(ctx context.Context) (*api.Response, error) {
				return a.client.Chat(ctx, message, ctxData)
			})
			if err != nil {
				return err
			}

			if answer := resp.StringField("response"); answer != "" && a.printer.Format() == display.FormatText {
				return a.printer.Markdown(answer)
			}
			return a.show(resp)
		},
	}
	cmd.Flags().StringVar(&chatContext, "context", "", "conversation context as a JSON object")
	return cmd
}

// chat stream prints each event as it arrives and returns once the final
// message is in, the stream fails, or the command is interrupted.
func (a *App) newChatStreamCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "stream [message...]",
		Short: "Open the chat event stream for a session",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			message := util.NormalizeInput(strings.Join(args, " "))
			ctx := cmd.Context()

			a.log.Debug("opening stream", zap.String("session", sessionID))
			s, err := a.client.OpenStream(ctx, sessionID, message, a.printEvent)
			if err != nil {
				return err
			}
			a.printer.Info("session " + s.ID())

			select {
			case <-s.Done():
				return s.Err()
			case <-ctx.Done():
				a.client.CloseStream()
				<-s.Done()
				return ctx.Err()
			}
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "chat session id (default: a new random id)")
	return cmd
}

// printEvent is the stream handler. Failures are reported by the command
// through StreamSession.Err, not here.
func (a *App) printEvent(ev api.StreamEvent) {
	if ev.Err != nil {
		return
	}
	var err error
	if text := ev.Text(); text != "" && a.printer.Format() == display.FormatText {
		err = a.printer.Print(text)
	} else {
		err = a.printer.Print(ev.Data)
	}
	if err != nil {
		a.log.Warn("failed to print event", zap.Error(err))
	}
}
