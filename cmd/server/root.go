package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/book_api/internal/config"
	"github.com/Skotchmaster/book_api/internal/logging"
)

type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "book-api",
		Short:         "Book management REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "optional config file (yaml, json, toml)")

	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newCreateAdminCmd(a))
	return root
}
