package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/deppfellow/go-dispatch/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Database.Enabled() {
				return a.fail(errors.New("database.host is not set"), "nothing to migrate")
			}

			if err := database.Migrate(cmd.Context(), &a.log, a.cfg); err != nil {
				return a.fail(err, "failed to migrate database")
			}
			return nil
		},
	}
}
