package commands

import (
	"context"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/meshview/provisioner/cmd/provisioner/commands/common"
	"github.com/meshview/provisioner/cmd/provisioner/commands/version"
	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/core"
	"github.com/meshview/provisioner/internal/doctor"
)

// examples:
// ./provisioner configure
// ./provisioner configure 2.5-1
// ./provisioner abort-upgrade 2.13-1
// ./provisioner check
// ./provisioner version --output json

// rootCmd represents the base command when called without any subcommands
var (
	// Used for flags.
	flagConfig       string
	flagVersion      bool
	flagOutputFormat string
	flagSaveReport   bool

	rootCmd = &cobra.Command{
		Use:   "provisioner",
		Short: "Provisions the PostgreSQL backend for the MeshView web application",
		Long: "MeshView Provisioner - prepares the database role, databases, schema and initial " +
			"accounts the MeshView web application needs on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagVersion {
				version.PrintVersion(cmd, flagOutputFormat)
				return nil
			}

			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", core.DefaultConfigFile, "config file path")

	// support '--version', '-v' to show version information
	rootCmd.PersistentFlags().BoolVarP(&flagVersion, "version", "v", false, "Show version")
	rootCmd.PersistentFlags().StringVarP(&flagOutputFormat, "output", "o", "yaml", "Output format (yaml|json)")

	common.FlagSaveReport.SetVarP(rootCmd, &flagSaveReport, false)

	// disable command sorting to keep the order of commands as added
	cobra.EnableCommandSorting = false

	// add subcommands
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(abortUpgradeCmd)
	rootCmd.AddCommand(abortRemoveCmd)
	rootCmd.AddCommand(abortDeconfigureCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(version.GetCmd())
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errorx.IllegalArgument.New("context is required")
	}

	cobra.OnInitialize(func() {
		initConfig(ctx)
	})

	// execute the root command
	_, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		return errorx.IllegalState.Wrap(err, "failed to execute command")
	}

	return nil
}

func initConfig(ctx context.Context) {
	configMissing := false

	err := config.Initialize(flagConfig)
	if err != nil {
		// the packaged config may not exist yet on the very first install;
		// defaults stay in effect in that case
		if flagConfig == core.DefaultConfigFile && errorx.IsOfType(err, config.NotFoundError) {
			configMissing = true
		} else {
			doctor.CheckErr(ctx, err)
		}
	}

	logConfig := config.Get().Log
	err = logx.Initialize(logConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	if configMissing {
		logx.As().Debug().Str("path", flagConfig).Msg("Config file not found, using packaged defaults")
	}
}
