package main

import (
	"context"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/quizbot/core/cmd"
	"github.com/m3rciful/quizbot/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return corecmd.Run(cmd.Context(), corecmd.Options{
			ConfigPath: configPath(cmd),
			LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
				return app.LoadConfig(path)
			},
			Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
				return app.Bootstrap(ctx, cfg.(*app.Config))
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
