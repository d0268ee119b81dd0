package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yevgeniy8/books-reading-backend/cli/config"
)

var (
	authName  string
	authEmail string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Register, login, and logout commands for the reading tracker.`,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authName == "" {
			return fmt.Errorf("name is required (--name)")
		}
		if authEmail == "" {
			return fmt.Errorf("email is required (--email)")
		}

		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		reqBody := map[string]string{
			"name":     authName,
			"email":    authEmail,
			"password": string(passwordBytes),
		}

		status, body, err := apiRequest(http.MethodPost, "/api/users/register", reqBody, false)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusCreated {
			printError("Registration failed: " + apiErrorMessage(body))
			return fmt.Errorf("registration failed")
		}

		printSuccess("Account created. Log in with: readingctl auth login")
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authEmail == "" {
			return fmt.Errorf("email is required (--email)")
		}

		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		reqBody := map[string]string{
			"email":    authEmail,
			"password": string(passwordBytes),
		}

		status, body, err := apiRequest(http.MethodPost, "/api/users/login", reqBody, false)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusOK {
			printError("Login failed: " + apiErrorMessage(body))
			return fmt.Errorf("login failed")
		}

		var resp struct {
			UserData struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"userData"`
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.User.Email = resp.UserData.Email
		cfg.User.AccessToken = resp.AccessToken
		cfg.User.RefreshToken = resp.RefreshToken
		if err := config.Save(cfg); err != nil {
			return err
		}

		printSuccess(fmt.Sprintf("Logged in as %s", resp.UserData.Name))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, body, err := apiRequest(http.MethodPost, "/api/users/logout", nil, false)
		if err != nil {
			printError(err.Error())
			return err
		}
		if status != http.StatusNoContent {
			printError("Logout failed: " + apiErrorMessage(body))
			return fmt.Errorf("logout failed")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.User.AccessToken = ""
		cfg.User.RefreshToken = ""
		if err := config.Save(cfg); err != nil {
			return err
		}

		printSuccess("Logged out")
		return nil
	},
}

func init() {
	authRegisterCmd.Flags().StringVar(&authName, "name", "", "display name")
	authRegisterCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	authLoginCmd.Flags().StringVar(&authEmail, "email", "", "account email")

	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
}
