package main

import (
	"github.com/spf13/cobra"

	"helpdesk/migrations"
)

func newMigrateCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Миграции схемы БД",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	actions := []struct {
		use   string
		short string
	}{
		{"up", "Применить все миграции"},
		{"down", "Откатить последнюю миграцию"},
		{"status", "Показать состояние миграций"},
	}

	for _, action := range actions {
		use := action.use
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				cfg, err := load(ctx)
				if err != nil {
					return err
				}
				db, closeDB, err := openDatabase(cfg)
				if err != nil {
					return err
				}
				defer closeDB()

				switch use {
				case "up":
					return migrations.Up(ctx, db.DB.DB)
				case "down":
					return migrations.Down(ctx, db.DB.DB)
				default:
					return migrations.Status(ctx, db.DB.DB)
				}
			},
		})
	}
	return cmd
}
