package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newBillingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Plans and subscription",
	}

	cmd.AddCommand(newBillingPlansCmd())
	cmd.AddCommand(newBillingSubscriptionCmd())
	cmd.AddCommand(newBillingCheckoutCmd())
	cmd.AddCommand(newBillingPortalCmd())
	cmd.AddCommand(newBillingUpgradeCmd())

	return cmd
}

func newBillingPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List available plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := apiClient.Billing().Plans(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, plans)
			}

			table := NewTable(out, "PLAN", "PRICE", "UPLOADS", "MAX FILE", "CURRENT")
			for _, p := range plans {
				current := ""
				if p.IsCurrent {
					current = "*"
				}
				table.AddRow(
					p.Name,
					fmt.Sprintf("%.2f %s/%s", p.Price, p.Currency, p.Interval),
					formatLimit(p.DailyLimit),
					formatBytes(p.MaxUpload),
					current,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newBillingSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscription",
		Short: "Show your subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := apiClient.Billing().Subscription(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get subscription: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, sub)
			}
			fmt.Fprintf(out, "Plan:    %s\n", sub.PlanType)
			fmt.Fprintf(out, "Status:  %s\n", formatStatus(sub.Status))
			if sub.LastEventAt != nil {
				fmt.Fprintf(out, "Updated: %s\n", sub.LastEventAt.UTC().Format("2006-01-02 15:04 MST"))
			}
			return nil
		},
	}
}

func newBillingCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Start a checkout for the pro plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := apiClient.Billing().Checkout(context.Background())
			if err != nil {
				return fmt.Errorf("failed to start checkout: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Complete your purchase at:\n  %s\n", sess.URL)
			return nil
		},
	}
}

func newBillingPortalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portal",
		Short: "Open the billing portal to manage payment details",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := apiClient.Billing().Portal(context.Background())
			if err != nil {
				return fmt.Errorf("failed to open billing portal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manage your subscription at:\n  %s\n", sess.URL)
			return nil
		},
	}
}

func newBillingUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade to pro without payment (demo servers only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Billing().Upgrade(context.Background())
			if err != nil {
				return fmt.Errorf("upgrade failed: %w", err)
			}
			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, res)
			}
			fmt.Fprintf(out, "Plan is now %s (%s)\n", res.PlanType, res.Status)
			return nil
		},
	}
}
