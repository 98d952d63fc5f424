package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	pkgdb "github.com/Skotchmaster/book_api/pkg/db"

	"github.com/Skotchmaster/book_api/internal/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(db *gorm.DB) error {
				return migrations.Up(db, a.logger)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(db *gorm.DB) error {
				return migrations.Down(db, steps, a.logger)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func (a *app) withDB(ctx context.Context, fn func(*gorm.DB) error) error {
	if a.cfg.DatabaseURL == "" {
		return errors.New("missing required env DATABASE_URL")
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := pkgdb.Open(openCtx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pkgdb.Close(db)
	return fn(db)
}
