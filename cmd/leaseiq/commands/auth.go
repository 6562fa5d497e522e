package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the LeaseIQ server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			email, password, err = promptCredentials(email, password)
			if err != nil {
				return err
			}

			resp, err := app.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			app.ctrl.SetSession(resp.User, resp.Token)
			app.ctrl.Bootstrap(cmd.Context())

			fmt.Printf("Signed in as %s (%s)\n", resp.User.Name, resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

// NewSignupCommand creates the signup command.
func NewSignupCommand() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a LeaseIQ account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			if name == "" {
				name, err = promptLine("Name: ")
				if err != nil {
					return err
				}
			}
			email, password, err = promptCredentials(email, password)
			if err != nil {
				return err
			}

			resp, err := app.api.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}

			app.ctrl.SetSession(resp.User, resp.Token)

			fmt.Printf("Account created for %s (%s)\n", resp.User.Name, resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			app.ctrl.Logout()
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func promptCredentials(email, password string) (string, string, error) {
	var err error
	if email == "" {
		email, err = promptLine("Email: ")
		if err != nil {
			return "", "", err
		}
	}
	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", "", err
		}
		password = string(raw)
	}
	return email, password, nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
