package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/spf13/cobra"
)

var (
	// Auth flags
	authEmail    string
	authPassword string
	authName     string
)

// loginCmd signs in and stores the token
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the API",
	Long: `Sign in with email and password. The access token is stored in the
user config directory (override with $GMB_TOKEN_FILE) and used by every
other command until it expires or you log out.

Examples:
  gmbctl login --email owner@example.com      # Prompts for the password
  gmbctl login -e owner@example.com -p secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(cmd.Context(), cmd.InOrStdin())
	},
}

// logoutCmd discards the stored token
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogout()
	},
}

// registerCmd creates an account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account. Sign in afterwards with gmbctl login.

Examples:
  gmbctl register -e owner@example.com --name "Jo Owner"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegister(cmd.Context(), cmd.InOrStdin())
	},
}

// whoamiCmd shows the current user
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWhoami(cmd.Context())
	},
}

// connectGoogleCmd starts Google account linking
var connectGoogleCmd = &cobra.Command{
	Use:   "connect-google",
	Short: "Link your Google Business Profile account",
	Long: `Ask the API for a Google authorization URL. Open it in a browser and
grant access; the API completes the link on its callback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnectGoogle(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd, connectGoogleCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "Account password (prompted when omitted)")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "Full name")
}

func runLogin(ctx context.Context, in io.Reader) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}

	email, password, err := credentials(in)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, a.api.Auth, email, password); err != nil {
		return err
	}

	snap := a.session.Snapshot()
	if jsonOutput {
		return printJSON(snap.User)
	}
	output.Success("Logged in as %s", snap.User.DisplayName())
	if !snap.ExpiresAt.IsZero() {
		output.Muted("Token expires %s", snap.ExpiresAt.Local().Format("Jan 2, 2006 15:04"))
	}
	return nil
}

func runLogout() error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	if err := a.session.Logout(); err != nil {
		return err
	}
	output.Success("Logged out")
	return nil
}

func runRegister(ctx context.Context, in io.Reader) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}

	email, password, err := credentials(in)
	if err != nil {
		return err
	}
	req := models.RegisterRequest{Email: email, Password: password, FullName: authName}
	if err := models.Validate(req); err != nil {
		return err
	}

	user, err := a.api.Auth.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}

	if jsonOutput {
		return printJSON(user)
	}
	output.Success("Registered %s", user.Email)
	output.Info("Run 'gmbctl login -e %s' to sign in", user.Email)
	return nil
}

func runWhoami(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}
	snap := a.session.Snapshot()

	if jsonOutput {
		return printJSON(snap.User)
	}
	output.Section("Signed in")
	fmt.Printf("Name:    %s\n", snap.User.DisplayName())
	fmt.Printf("Email:   %s\n", snap.User.Email)
	fmt.Printf("API:     %s\n", a.cfg.APIURL)
	if !snap.ExpiresAt.IsZero() {
		fmt.Printf("Expires: %s\n", snap.ExpiresAt.Local().Format("Jan 2, 2006 15:04"))
	}
	return nil
}

func runConnectGoogle(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	resp, err := a.api.Auth.GoogleAuthorize(ctx)
	if err != nil {
		return fmt.Errorf("failed to start Google authorization: %w", err)
	}

	if jsonOutput {
		return printJSON(resp)
	}
	output.Info("Open this URL in your browser to connect your Google account:")
	fmt.Println(resp.AuthorizationURL)
	return nil
}

// credentials returns the flag values, prompting on in for anything missing.
func credentials(in io.Reader) (email, password string, err error) {
	email, password = authEmail, authPassword
	r := bufio.NewReader(in)
	if email == "" {
		if email, err = prompt(r, "Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = prompt(r, "Password: "); err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", errors.New("email and password are required")
	}
	return email, password, nil
}

func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
