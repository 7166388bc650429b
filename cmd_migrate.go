package main

import (
	"github.com/spf13/cobra"

	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		conn, err := db.Connect(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()
		return db.Migrate(cmd.Context(), conn)
	},
}
