package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/session"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the HR backend",
	Long:  `Signs in and keeps the console session in the local state file. The password is read from stdin when --password is omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			password := loginPassword
			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			result, err := env.Services.Auth.Login(ctx, auth.LoginDTO{Email: loginEmail, Password: password})
			if err != nil {
				return err
			}

			creds := cliCredentials{
				AccessToken:  result.AccessToken,
				RefreshToken: result.RefreshToken,
				User:         result.User,
			}
			if err := session.Set(ctx, env.State, cliCredentialsKey, creds); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			fmt.Fprintf(env.Out, "%s\nSigned in as %s (%s)\n", result.Message, result.User.Name, result.User.Access)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			if sess, err := env.Session(ctx); err == nil {
				if err := env.Services.Auth.Logout(ctx, sess.ID); err != nil {
					env.Logger.Warn("logout failed", "error", err)
				}
			}
			// signing out always clears local state, signed in or not
			if err := env.State.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			sess, err := env.Session(ctx)
			if err != nil {
				return err
			}
			parsed := sess.User.ParsedAccess()
			return env.printJSON(map[string]interface{}{
				"user":         sess.User,
				"role":         parsed.Role,
				"capabilities": parsed.Role.Capabilities(),
				"expires_at":   sess.ExpiresAt,
			})
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
