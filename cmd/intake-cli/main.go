package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"meela-intake/intake"
	"meela-intake/utils"
)

var rootCmd = &cobra.Command{
	Use:   filepath.Base(os.Args[0]),
	Short: "Meela client intake form in the terminal",
	Long: `
Walks through the three-step Meela intake form against a running backend.
Pass a page URL carrying ?userId=... to resume a saved session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := utils.NewLogger(false, viper.GetString("log_level"))
		if err != nil {
			return err
		}
		defer logger.Sync()

		page, err := intake.ParsePageURL(viper.GetString("page"))
		if err != nil {
			return err
		}
		ctrl := intake.NewController(
			intake.NewHTTPBackend(viper.GetString("api")),
			page,
			intake.WithLogger(logger.Named("intake")),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Debug("starting intake session", zap.String("page", page.String()))
		return newSession(ctrl, page, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	},
}

func init() {
	rootCmd.Flags().String("api", "http://localhost:3000", "intake backend base URL")
	rootCmd.Flags().String("page", "http://localhost:5173/", "page URL, may carry ?userId= to resume")
	rootCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	_ = viper.BindEnv("api", "INTAKE_API_URL")
	_ = viper.BindEnv("page", "INTAKE_PAGE_URL")
	_ = viper.BindEnv("log_level", "INTAKE_LOG_LEVEL")
	_ = viper.BindPFlag("api", rootCmd.Flags().Lookup("api"))
	_ = viper.BindPFlag("page", rootCmd.Flags().Lookup("page"))
	_ = viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
