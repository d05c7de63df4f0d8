package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/shopeasy/internal/config"
	"github.com/Alturino/shopeasy/internal/constants"
	"github.com/Alturino/shopeasy/internal/log"
)

type configKey struct{}

func Start() {
	logger := log.NewLogger("", "").
		With().
		Str(log.KeyAppName, constants.AppMainShopeasy).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Error().Err(err).Msgf("error when executing command=%s", err.Error())
		stop()
		os.Exit(1)
	}
}

// NewRootCommand loads the config and the process logger before any
// subcommand runs.
func NewRootCommand() *cobra.Command {
	configName := constants.ConfigNameShopeasy
	rootCmd := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Shopping cart backed by a remote product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c := cmd.Context()
			cfg := config.InitConfig(c, configName)
			logger := log.InitLogger(cfg.Application.LogPath, cfg.Application.Env).
				With().
				Str(log.KeyAppName, constants.AppName).
				Str(log.KeyTag, "main "+cmd.Name()).
				Logger()
			c = logger.WithContext(c)
			cmd.SetContext(context.WithValue(c, configKey{}, cfg))
		},
	}
	rootCmd.PersistentFlags().StringVar(&configName, "config", configName, "config file name under ./env, without extension")

	rootCmd.AddCommand(
		newServeCommand(),
		newBrowseCommand(),
		newRegisterCommand(),
		newLoginCommand(),
		newLogoutCommand(),
	)
	return rootCmd
}

func configFrom(c context.Context) *config.Config {
	cfg, ok := c.Value(configKey{}).(*config.Config)
	if !ok {
		zerolog.Ctx(c).Fatal().Msg("config is not loaded")
	}
	return cfg
}
