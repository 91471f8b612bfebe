// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
)

func (a *App) newUploadCmd() *cobra.Command {
	var (
		fileType string
		metadata string
		name     string
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: `Upload a file ("-" reads stdin)`,
		Example: `  ptso upload chart.png --type image --metadata '{"owner":"me"}'
  cat notes.txt | ptso upload - --name notes.txt`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.UploadRequest{Type: fileType, Metadata: metadata}

			if args[0] == "-" {
				if name == "" {
					return fmt.Errorf("%w: --name is required when reading stdin", api.ErrInvalidInput)
				}
				req.Filename, req.Content = name, a.in
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("%w: %w", api.ErrInvalidInput, err)
				}
				defer f.Close()
				req.Filename, req.Content = filepath.Base(args[0]), f
				if name != "" {
					req.Filename = name
				}
			}

			resp, err := a.call(cmd.Context(), "Uploading "+req.Filename, func(ctx context.Context) (*api.Response, error) {
				return a.client.Upload(ctx, req)
			})
			if err != nil {
				return err
			}
			return a.show(resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&fileType, "type", "", "file type tag sent with the upload")
	f.StringVar(&metadata, "metadata", "", "metadata as a JSON document")
	f.StringVar(&name, "name", "", "file name sent to the server (default: base name of <file>)")
	return cmd
}
