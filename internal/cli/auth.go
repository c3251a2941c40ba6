package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pratik-mahalle/altseo/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Login with email and password",
		Annotations: map[string]string{annotationClient: clientPublic},
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = promptInput(cmd, "Email: ")
			}
			if password == "" {
				password = promptPassword(cmd, "Password: ")
			}

			resp, err := apiClient.Login(context.Background(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveCredentials(resp, email); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(resp.User, email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func newAuthRegisterCmd() *cobra.Command {
	var email, password, fullName, username string

	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Register a new account on the free plan",
		Annotations: map[string]string{annotationClient: clientPublic},
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = promptInput(cmd, "Email: ")
			}
			if password == "" {
				password = promptPassword(cmd, "Password: ")
				confirm := promptPassword(cmd, "Confirm password: ")
				if password != confirm {
					return fmt.Errorf("passwords do not match")
				}
			}

			req := client.RegisterRequest{
				Email:    email,
				Password: password,
				Username: username,
			}
			if fullName != "" {
				req.FullName = &fullName
			}

			resp, err := apiClient.Register(context.Background(), req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			if err := saveCredentials(resp, email); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account created. Logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVar(&username, "username", "", "username")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Clear stored credentials",
		Annotations: map[string]string{annotationClient: clientPublic},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Server side logout only clears cookies, so a failure is not fatal
			if token := viper.GetString("auth.token"); token != "" {
				apiClient.SetToken(token)
				_ = apiClient.Logout(context.Background())
			}

			viper.Set("auth.token", "")
			viper.Set("auth.refresh_token", "")
			viper.Set("auth.email", "")

			if _, err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show current user info",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := apiClient.GetCurrentUser(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get user info: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, user)
			}

			fmt.Fprintf(out, "Email:    %s\n", user.Email)
			if user.FullName != nil && *user.FullName != "" {
				fmt.Fprintf(out, "Name:     %s\n", *user.FullName)
			}
			if user.Username != "" {
				fmt.Fprintf(out, "Username: %s\n", user.Username)
			}
			fmt.Fprintf(out, "Role:     %s\n", user.Role)
			fmt.Fprintf(out, "Plan:     %s\n", user.PlanType)
			fmt.Fprintf(out, "ID:       %d\n", user.ID)
			return nil
		},
	}
}

func saveCredentials(resp *client.AuthResponse, email string) error {
	viper.Set("auth.token", resp.AccessToken)
	if resp.RefreshToken != "" {
		viper.Set("auth.refresh_token", resp.RefreshToken)
	}
	if resp.User != nil {
		email = resp.User.Email
	}
	viper.Set("auth.email", email)

	if _, err := writeConfig(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func displayName(u *client.User, fallback string) string {
	if u == nil {
		return fallback
	}
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

func promptInput(cmd *cobra.Command, prompt string) string {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	return readLine(cmd.InOrStdin())
}

func promptPassword(cmd *cobra.Command, prompt string) string {
	fmt.Fprint(cmd.OutOrStdout(), prompt)

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return ""
		}
		return string(password)
	}
	return readLine(in)
}

// lineReaders keeps one buffered reader per input so consecutive prompts
// do not lose buffered lines
var lineReaders = map[io.Reader]*bufio.Reader{}

func readLine(r io.Reader) string {
	br, ok := lineReaders[r]
	if !ok {
		br = bufio.NewReader(r)
		lineReaders[r] = br
	}
	line, _ := br.ReadString('\n')
	return strings.TrimSpace(line)
}
