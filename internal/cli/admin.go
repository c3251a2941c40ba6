package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pratik-mahalle/altseo/pkg/client"
	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration commands (operators and admins)",
	}

	cmd.AddCommand(newAdminUsersCmd())
	cmd.AddCommand(newAdminSetRoleCmd())
	cmd.AddCommand(newAdminAuditCmd())

	return cmd
}

func newAdminUsersCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Admin().Users(context.Background(), &client.ListOptions{Page: page, PageSize: pageSize})
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, res)
			}

			table := NewTable(out, "ID", "EMAIL", "ROLE", "PLAN", "CREATED")
			for _, u := range res.Data {
				table.AddRow(
					strconv.FormatInt(u.ID, 10),
					u.Email,
					u.Role,
					u.PlanType,
					u.CreatedAt.Format("2006-01-02"),
				)
			}
			table.Render()
			fmt.Fprintf(out, "\nPage %d of %d (%d users)\n", res.Page, res.TotalPages, res.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "users per page")

	return cmd
}

func newAdminSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set-role <user-id> <role>",
		Short:     "Change a user's role (user, operator, admin)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"user", "operator", "admin"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := apiClient.Admin().SetRole(context.Background(), id, args[1])
			if err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	}
}

func newAdminAuditCmd() *cobra.Command {
	var page, pageSize int
	var action, target string
	var actor int64

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Admin().AuditLogs(context.Background(), &client.AuditListOptions{
				ListOptions: client.ListOptions{Page: page, PageSize: pageSize},
				Action:      action,
				ActorID:     actor,
				TargetID:    target,
			})
			if err != nil {
				return fmt.Errorf("failed to list audit logs: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, res)
			}

			table := NewTable(out, "TIME", "ACTION", "ACTOR", "TARGET")
			for _, e := range res.Data {
				actorCol := "system"
				if e.ActorID != nil {
					actorCol = strconv.FormatInt(*e.ActorID, 10)
				}
				table.AddRow(
					e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
					e.Action,
					actorCol,
					e.TargetType+":"+e.TargetID,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "entries per page")
	cmd.Flags().StringVar(&action, "action", "", "filter by action")
	cmd.Flags().Int64Var(&actor, "actor", 0, "filter by actor user id")
	cmd.Flags().StringVar(&target, "target", "", "filter by target id")

	return cmd
}
