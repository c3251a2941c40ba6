package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pratik-mahalle/altseo/pkg/client"
	"github.com/spf13/cobra"
)

func newImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "Manage your image library",
	}

	cmd.AddCommand(newImagesListCmd())
	cmd.AddCommand(newImagesGetCmd())
	cmd.AddCommand(newImagesDeleteCmd())
	cmd.AddCommand(newImagesRegenerateCmd())
	cmd.AddCommand(newImagesEditCmd())

	return cmd
}

func newImagesListCmd() *cobra.Command {
	var page, pageSize int
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Images().List(context.Background(), &client.ImageListOptions{
				ListOptions: client.ListOptions{Page: page, PageSize: pageSize},
				Status:      status,
			})
			if err != nil {
				return fmt.Errorf("failed to list images: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, res)
			}

			table := NewTable(out, "ID", "FILE", "DIMENSIONS", "STATUS", "ALT TEXT", "CREATED")
			for _, img := range res.Data {
				table.AddRow(
					strconv.FormatInt(img.ID, 10),
					truncate(img.Filename, 30),
					fmt.Sprintf("%dx%d", img.Width, img.Height),
					formatStatus(img.AltTextStatus),
					truncate(img.AltText, 50),
					img.CreatedAt.Format("2006-01-02"),
				)
			}
			table.Render()
			fmt.Fprintf(out, "\nPage %d of %d (%d images)\n", res.Page, res.TotalPages, res.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "images per page")
	cmd.Flags().StringVar(&status, "status", "", "filter by ALT text status (generated, failed, edited)")

	return cmd
}

func newImagesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an image and its ALT text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			img, err := apiClient.Images().Get(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to get image: %w", err)
			}
			return printImage(cmd, img)
		},
	}
}

func newImagesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := apiClient.Images().Delete(context.Background(), id); err != nil {
				return fmt.Errorf("failed to delete image: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Image %d deleted\n", id)
			return nil
		},
	}
}

func newImagesRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <id>",
		Short: "Generate a new ALT text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			img, err := apiClient.Images().Regenerate(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to regenerate alt text: %w", err)
			}
			return printImage(cmd, img)
		},
	}
}

func newImagesEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <alt text>",
		Short: "Replace the ALT text with your own",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return fmt.Errorf("alt text must not be empty")
			}
			img, err := apiClient.Images().EditAltText(context.Background(), id, text)
			if err != nil {
				return fmt.Errorf("failed to edit alt text: %w", err)
			}
			return printImage(cmd, img)
		},
	}
}

func printImage(cmd *cobra.Command, img *client.Image) error {
	out := cmd.OutOrStdout()
	if getOutputFormat() != "table" {
		return printOutput(out, img)
	}

	fmt.Fprintf(out, "ID:         %d\n", img.ID)
	fmt.Fprintf(out, "File:       %s\n", img.Filename)
	fmt.Fprintf(out, "Type:       %s (%s)\n", img.ContentType, formatBytes(img.SizeBytes))
	fmt.Fprintf(out, "Dimensions: %dx%d\n", img.Width, img.Height)
	fmt.Fprintf(out, "URL:        %s\n", img.PublicURL)
	fmt.Fprintf(out, "Status:     %s\n", formatStatus(img.AltTextStatus))
	fmt.Fprintf(out, "ALT text:   %s\n", img.AltText)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
