// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshview/provisioner/internal/config"
)

func TestNewHealthCheckWorkflow_Builds(t *testing.T) {
	wb := NewHealthCheckWorkflow(config.Defaults())
	require.NotNil(t, wb)

	workflow, err := wb.Build()
	require.NoError(t, err)
	assert.Equal(t, HealthCheckWorkflowId, workflow.Id())
	assert.Len(t, workflow.Steps(), 8)
}

func TestCheckAppSettingsStep(t *testing.T) {
	writeSettings := func(t *testing.T, contents string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "settings.toml")
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		return path
	}

	t.Run("valid settings", func(t *testing.T) {
		path := writeSettings(t, "[admin]\nemail = \"ops@example.org\"\n")

		step, err := CheckAppSettingsStep(path).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.NoError(t, report.Error)
		require.Equal(t, automa.StatusSuccess, report.Status)
		assert.Equal(t, "ops@example.org", report.Metadata["contact"])
	})

	t.Run("missing contact", func(t *testing.T) {
		path := writeSettings(t, "[server]\nport = 8080\n")

		step, err := CheckAppSettingsStep(path).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Error(t, report.Error)
		require.Equal(t, automa.StatusFailed, report.Status)
	})

	t.Run("missing file", func(t *testing.T) {
		step, err := CheckAppSettingsStep(filepath.Join(t.TempDir(), "settings.toml")).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Error(t, report.Error)
		require.Equal(t, automa.StatusFailed, report.Status)
	})

	t.Run("unconfigured", func(t *testing.T) {
		step, err := CheckAppSettingsStep("").Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.NoError(t, report.Error)
		require.Equal(t, automa.StatusSkipped, report.Status)
	})
}

func TestCheckDiskSpaceStep(t *testing.T) {
	t.Run("readable path", func(t *testing.T) {
		step, err := CheckDiskSpaceStep(t.TempDir()).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.NoError(t, report.Error)
		require.Equal(t, automa.StatusSuccess, report.Status)
		assert.NotEmpty(t, report.Metadata["total_gb"])
	})

	t.Run("missing path", func(t *testing.T) {
		step, err := CheckDiskSpaceStep(filepath.Join(t.TempDir(), "nope")).Build()
		require.NoError(t, err)

		report := step.Execute(context.Background())
		require.Error(t, report.Error)
		require.Equal(t, automa.StatusFailed, report.Status)
	})
}

func TestCheckKernelSettingsStep_AlwaysSucceeds(t *testing.T) {
	step, err := CheckKernelSettingsStep().Build()
	require.NoError(t, err)

	report := step.Execute(context.Background())
	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
}

func TestHostProfileStep(t *testing.T) {
	step, err := HostProfileStep().Build()
	require.NoError(t, err)

	report := step.Execute(context.Background())
	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
	assert.NotEmpty(t, report.Metadata["cpu_cores"])
}
