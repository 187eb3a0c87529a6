package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/omerzach/mina/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "MINA_HELPER"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libp2p-helper",
		Short: "Runs the libp2p networking helper as a stdio subprocess",
		RunE:  runHelper,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error (defaults to info).")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("log-add-source", false, "Include source file:line in logs.")

	_ = viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("log-add-source", cmd.PersistentFlags().Lookup("log-add-source"))

	viper.SetDefault("log-format", "text")
	viper.SetDefault("log-add-source", false)

	return cmd
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func runHelper(cmd *cobra.Command, args []string) error {
	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := helper.LoggerFromViper()
	if err != nil {
		return fmt.Errorf("resolve logger: %w", err)
	}

	app := helper.NewApp(runCtx, logger)
	defer app.Close()

	err = app.Run(cmd.InOrStdin(), cmd.OutOrStdout())
	if runCtx.Err() != nil {
		return nil
	}
	return err
}
