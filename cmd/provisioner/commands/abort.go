// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/meshview/provisioner/internal/doctor"
	"github.com/meshview/provisioner/internal/lifecycle"
	"github.com/meshview/provisioner/internal/version"
)

// The abort family acknowledges a cancelled package operation. Nothing is
// provisioned or rolled back; the databases already on the host stay as
// they are and the process exits cleanly so the package manager can finish
// its own recovery.
var (
	abortUpgradeCmd = &cobra.Command{
		Use:   lifecycle.EventAbortUpgrade + " [version]",
		Short: "Acknowledge a cancelled upgrade",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAbort,
	}

	abortRemoveCmd = &cobra.Command{
		Use:   lifecycle.EventAbortRemove + " [version]",
		Short: "Acknowledge a cancelled removal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAbort,
	}

	abortDeconfigureCmd = &cobra.Command{
		Use:   lifecycle.EventAbortDeconfigure + " [version]",
		Short: "Acknowledge a cancelled deconfiguration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAbort,
	}
)

func runAbort(cmd *cobra.Command, args []string) error {
	event := lifecycle.Event{Name: cmd.Name()}
	if len(args) > 0 {
		event.PriorVersion = version.New(args[0])
	}

	state, err := lifecycle.Decide(event)
	if err != nil {
		doctor.CheckErr(cmd.Context(), err)
	}

	logx.As().Info().
		Str("event", event.Name).
		Str("state", state.String()).
		Msg("Package operation aborted, nothing to do")

	return nil
}
