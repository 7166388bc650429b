package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
)

var (
	adminName  string
	adminEmail string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" {
			return errors.New("--email is required")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		conn, err := db.Connect(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()

		name := adminName
		if name == "" {
			name = adminEmail
		}
		svc := auth.NewService(auth.NewStore(conn), nil)
		acct, err := svc.CreateAdmin(cmd.Context(), auth.RegisterRequest{Name: name, Email: adminEmail, Password: password})
		if err != nil {
			return err
		}
		fmt.Printf("admin ready: id=%d email=%s\n", acct.ID, acct.Email)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name (defaults to the email)")
}

// readPassword: 端末ではエコーせずに読む
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("create-admin needs an interactive terminal")
	}
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
