package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-backend/internal/platform/config"
)

var version = "2.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "library-backend",
	Short:   "Library checkout API server",
	Version: version,
	// サブコマンド省略時は serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.yaml")
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
