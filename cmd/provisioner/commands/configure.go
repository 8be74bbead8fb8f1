// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/meshview/provisioner/cmd/provisioner/commands/common"
	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/doctor"
	"github.com/meshview/provisioner/internal/lifecycle"
	"github.com/meshview/provisioner/internal/version"
	"github.com/meshview/provisioner/internal/workflows"
)

var configureCmd = &cobra.Command{
	Use:   "configure [prior-version]",
	Short: "Provision the database backend",
	Long: "Provision the database backend: a fresh install creates the role, databases and initial " +
		"administrator; with a prior version the applicable schema migrations run instead",
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	event := lifecycle.Event{Name: lifecycle.EventConfigure}
	if len(args) > 0 {
		event.PriorVersion = version.New(args[0])
	}

	state, err := lifecycle.Decide(event)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	cfg := config.Get()

	// The administrative connection is control plane, not a provisioning
	// step: without it nothing can run and configure must fail loudly.
	mgr, err := database.NewManager(ctx, cfg.Database.ManagerConfig())
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
	defer func() { _ = mgr.Close() }()

	switch state {
	case lifecycle.StateFreshInstall:
		logx.As().Info().Msg("No prior version, provisioning from scratch")
		common.RunProvisioningWorkflow(ctx, workflows.NewFreshInstallWorkflow(mgr, &cfg), flagSaveReport)

	case lifecycle.StateUpgrade:
		logx.As().Info().Str("from", event.PriorVersion.String()).Msg("Upgrading existing deployment")

		wb, err := workflows.NewUpgradeWorkflow(mgr, &cfg, event.PriorVersion)
		if err != nil {
			doctor.CheckErr(ctx, err)
		}
		if wb == nil {
			logx.As().Info().Str("from", event.PriorVersion.String()).
				Msg("Prior version is recent enough, nothing to migrate")
			return nil
		}

		common.RunProvisioningWorkflow(ctx, wb, flagSaveReport)
	}

	return nil
}
