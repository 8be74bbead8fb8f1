// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/cobra"

	"github.com/meshview/provisioner/cmd/provisioner/commands/common"
	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/workflows"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the environment without provisioning",
	Long: "Run the environment health checks: PostgreSQL package and service, kernel settings, " +
		"disk space, the administrative connection and the application settings. " +
		"Exits non-zero when any check fails",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	common.RunCheckWorkflow(cmd.Context(), workflows.NewHealthCheckWorkflow(config.Get()), flagSaveReport)
	return nil
}
