package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pratik-mahalle/altseo/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type statusSummary struct {
	Server string            `json:"server" yaml:"server"`
	User   *client.User      `json:"user,omitempty" yaml:"user,omitempty"`
	Quota  *client.RateLimit `json:"quota,omitempty" yaml:"quota,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show server, account and quota status",
		Annotations: map[string]string{annotationClient: clientPublic},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()

			var s statusSummary
			if health, err := apiClient.Health(ctx); err != nil {
				s.Server = fmt.Sprintf("unreachable: %v", err)
			} else {
				s.Server = health.Status
			}

			token := viper.GetString("auth.token")
			if token != "" {
				apiClient.SetToken(token)
				s.User, _ = apiClient.GetCurrentUser(ctx)
				s.Quota, _ = apiClient.RateLimit(ctx)
			}

			if getOutputFormat() != "table" {
				return printOutput(out, s)
			}

			fmt.Fprintln(out, "AltSEO Status")
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "  Server:    %s\n", s.Server)
			switch {
			case token == "":
				fmt.Fprintln(out, "  Account:   not logged in")
				return nil
			case s.User == nil:
				fmt.Fprintln(out, "  Account:   session expired, run 'altseo auth login'")
				return nil
			}
			fmt.Fprintf(out, "  Account:   %s (%s)\n", s.User.Email, s.User.PlanType)

			if rl := s.Quota; rl != nil {
				if rl.Unlimited {
					fmt.Fprintf(out, "  Uploads:   %d today (unlimited)\n", rl.Used)
				} else {
					fmt.Fprintf(out, "  Uploads:   %d of %d left today\n", rl.Remaining, rl.Limit)
				}
				fmt.Fprintf(out, "  Resets at: %s\n", rl.ResetsAt.UTC().Format("2006-01-02 15:04 MST"))
			}
			return nil
		},
	}
}
