package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pratik-mahalle/altseo/internal/imagecheck"
	"github.com/pratik-mahalle/altseo/pkg/client"
	"github.com/spf13/cobra"
)

// defaultMaxUpload applies when the plan catalogue cannot be fetched
const defaultMaxUpload = 5 * 1024 * 1024

func newUploadCmd() *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload images and generate ALT text",
		Long: `Upload one or more PNG, JPEG or WEBP images. Each file is checked locally
against your plan's size limit before it is sent.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			maxBytes := currentMaxUpload(ctx)

			var uploaded []*client.Image
			for _, path := range args {
				img, err := uploadFile(ctx, path, maxBytes, width, height)
				if err != nil {
					var apiErr *client.APIError
					if errors.As(err, &apiErr) && apiErr.IsRateLimited() {
						if d, ok := apiErr.LimitDetails(); ok {
							return fmt.Errorf("%s: daily limit of %d uploads reached, resets at %s",
								filepath.Base(path), d.Limit, d.ResetsAt.UTC().Format("15:04 MST"))
						}
					}
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				uploaded = append(uploaded, img)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, uploaded)
			}

			table := NewTable(out, "ID", "FILE", "SIZE", "STATUS", "ALT TEXT")
			for _, img := range uploaded {
				table.AddRow(
					fmt.Sprintf("%d", img.ID),
					truncate(img.Filename, 30),
					formatBytes(img.SizeBytes),
					formatStatus(img.AltTextStatus),
					truncate(img.AltText, 60),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "override the stored width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "override the stored height in pixels")

	return cmd
}

func uploadFile(ctx context.Context, path string, maxBytes int64, width, height int) (*client.Image, error) {
	res := imagecheck.ValidateFile(path, maxBytes)
	if !res.Valid {
		return nil, errors.New(res.Error)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return apiClient.Images().Upload(ctx, filepath.Base(path), data, client.UploadOptions{
		ContentType: res.ContentType,
		Width:       width,
		Height:      height,
	})
}

// currentMaxUpload looks up the size limit of the caller's plan
func currentMaxUpload(ctx context.Context) int64 {
	plans, err := apiClient.Billing().Plans(ctx)
	if err != nil {
		return defaultMaxUpload
	}
	for _, p := range plans {
		if p.IsCurrent && p.MaxUpload > 0 {
			return p.MaxUpload
		}
	}
	return defaultMaxUpload
}
