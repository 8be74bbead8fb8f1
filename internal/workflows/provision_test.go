// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshview/provisioner/internal/config"
	"github.com/meshview/provisioner/internal/database"
	"github.com/meshview/provisioner/internal/migration"
	"github.com/meshview/provisioner/internal/version"
	"github.com/meshview/provisioner/internal/workflows/steps"
)

func TestNewFreshInstallWorkflow(t *testing.T) {
	//
	// Given
	//

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	mgr.EXPECT().EnsureRole(gomock.Any(), "meshview").Return(database.OutcomeCreated, nil)
	mgr.EXPECT().EnsureDatabase(gomock.Any(), "views", "meshview", gomock.Nil()).
		Return(database.OutcomeCreated, nil)
	mgr.EXPECT().EnsureDatabase(gomock.Any(), "userfilters", "meshview", gomock.Nil()).
		Return(database.OutcomeCreated, nil)

	cfg := config.Defaults()

	wb := NewFreshInstallWorkflow(mgr, &cfg)
	require.NotNil(t, wb)

	workflow, err := wb.Build()
	require.NoError(t, err)

	//
	// When
	//

	report := workflow.Execute(context.Background())

	//
	// Then
	//

	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
	require.Len(t, report.StepReports, 4)

	assert.Equal(t, steps.EnsureRoleStepId, report.StepReports[0].Id)
	assert.Equal(t, automa.StatusSuccess, report.StepReports[0].Status)

	assert.Equal(t, "ensure-database-views", report.StepReports[1].Id)
	assert.Equal(t, "ensure-database-userfilters", report.StepReports[2].Id)

	// No administrator credentials in the defaults, so the seed step skips
	assert.Equal(t, steps.CreateAdminUserStepId, report.StepReports[3].Id)
	assert.Equal(t, automa.StatusSkipped, report.StepReports[3].Status)
}

func TestNewUpgradeWorkflow_AppliesMigrationsAndImport(t *testing.T) {
	//
	// Given
	//

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	// create-users-table and add-users-enabled-column both mutate the users
	// database; the enabled column is reported absent so the second Exec runs
	mgr.EXPECT().Exec(gomock.Any(), "views", gomock.Any()).Return(nil).Times(2)
	mgr.EXPECT().ColumnExists(gomock.Any(), "views", "users", "enabled").Return(false, nil)
	mgr.EXPECT().EnsureDatabase(gomock.Any(), "userfilters", "meshview", gomock.Nil()).
		Return(database.OutcomeCreated, nil)

	cfg := config.Defaults()
	cfg.Legacy.UsersFile = filepath.Join(t.TempDir(), "users")

	wb, err := NewUpgradeWorkflow(mgr, &cfg, version.New("2.5-1"))
	require.NoError(t, err)
	require.NotNil(t, wb)

	workflow, err := wb.Build()
	require.NoError(t, err)

	//
	// When
	//

	report := workflow.Execute(context.Background())

	//
	// Then
	//

	require.NoError(t, report.Error)
	require.Equal(t, automa.StatusSuccess, report.Status)
	require.Len(t, report.StepReports, 2)

	assert.Equal(t, MigrationWorkflowId, report.StepReports[0].Id)
	assert.Equal(t, automa.StatusSuccess, report.StepReports[0].Status)

	// The legacy credential file does not exist, so the import skips
	assert.Equal(t, steps.ImportLegacyUsersStepId, report.StepReports[1].Id)
	assert.Equal(t, automa.StatusSkipped, report.StepReports[1].Status)
}

func TestNewUpgradeWorkflow_RecentVersionHasNothingToDo(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	cfg := config.Defaults()

	wb, err := NewUpgradeWorkflow(mgr, &cfg, version.New("2.14-1"))
	require.NoError(t, err)
	assert.Nil(t, wb)
}

func TestNewUpgradeWorkflow_SkipsImportForNewerDeployments(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	cfg := config.Defaults()

	// Coming from 2.8-1 only the filter database split applies, and the
	// credential import gate is already behind us
	wb, err := NewUpgradeWorkflow(mgr, &cfg, version.New("2.8-1"))
	require.NoError(t, err)
	require.NotNil(t, wb)

	workflow, err := wb.Build()
	require.NoError(t, err)
	require.Len(t, workflow.Steps(), 1)
}

func TestMigrationWorkflow_ContinuesPastFailedStep(t *testing.T) {
	//
	// Given
	//

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mgr := database.NewMockManager(ctrl)
	gomock.InOrder(
		mgr.EXPECT().Exec(gomock.Any(), "views", gomock.Any()).Return(assert.AnError),
		mgr.EXPECT().ColumnExists(gomock.Any(), "views", "users", "enabled").Return(false, nil),
		mgr.EXPECT().Exec(gomock.Any(), "views", gomock.Any()).Return(nil),
		mgr.EXPECT().EnsureDatabase(gomock.Any(), "userfilters", "meshview", gomock.Nil()).
			Return(database.OutcomeCreated, nil),
	)

	cfg := config.Defaults()
	migrationMgr, err := NewMigrationManager(&cfg)
	require.NoError(t, err)

	mctx := &migration.Context{
		FromVersion: version.New("2.5-1"),
		Target:      version.New("2.14-1"),
		DB:          mgr,
	}

	wb := BuildMigrationWorkflow(migrationMgr, mctx)
	require.NotNil(t, wb)

	workflow, err := wb.Build()
	require.NoError(t, err)

	//
	// When
	//

	report := workflow.Execute(context.Background())

	//
	// Then: the first step failed but the remaining two still ran
	//

	require.Len(t, report.StepReports, 3)
	assert.Equal(t, automa.StatusFailed, report.StepReports[0].Status)
	assert.Equal(t, automa.StatusSuccess, report.StepReports[1].Status)
	assert.Equal(t, automa.StatusSuccess, report.StepReports[2].Status)
}

func TestUserFiltersSpec(t *testing.T) {
	cfg := config.Defaults()
	spec := userFiltersSpec(&cfg)
	assert.Equal(t, "userfilters", spec.Name)
	assert.NotEmpty(t, spec.Dump)

	cfg.Provision.Databases = []config.DatabaseSpec{
		{Name: "userfilters", Dump: "/opt/custom/filters.sql"},
	}
	spec = userFiltersSpec(&cfg)
	assert.Equal(t, "/opt/custom/filters.sql", spec.Dump)

	cfg.Provision.Databases = nil
	spec = userFiltersSpec(&cfg)
	assert.Equal(t, "userfilters", spec.Name)
}
