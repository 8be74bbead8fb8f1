// SPDX-License-Identifier: Apache-2.0

//go:build integration

package workflows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshview/provisioner/internal/config"
)

// Executes the real health check workflow against the host. Individual
// checks may fail depending on what is installed; the workflow itself must
// still run every check and produce a report for each.
func TestNewHealthCheckWorkflow_Integration(t *testing.T) {
	wb := NewHealthCheckWorkflow(config.Defaults())
	require.NotNil(t, wb)

	workflow, err := wb.Build()
	require.NoError(t, err)

	report := workflow.Execute(context.Background())
	require.NotNil(t, report)
	require.Len(t, report.StepReports, 8)
}
